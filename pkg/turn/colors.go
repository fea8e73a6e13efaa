package turn

// Palette is the ordinal colour scheme assigned to players in order.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NeutralColor is used for unowned planets and cells.
const NeutralColor = "#000"

// ColorMap assigns colours to players.
type ColorMap map[string]string

// Colors returns a colour per player of the match. Colours wrap around when
// there are more players than palette entries.
func (l *Log) Colors() ColorMap {
	players := l.Players()
	out := make(ColorMap, len(players))
	for i, p := range players {
		out[p] = Palette[i%len(Palette)]
	}
	return out
}

// Get returns the colour of owner, or NeutralColor for neutral or unknown
// owners.
func (m ColorMap) Get(owner string) string {
	if c, ok := m[owner]; ok && owner != "" {
		return c
	}
	return NeutralColor
}
