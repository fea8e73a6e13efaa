package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/starmap/pkg/merge"
	"github.com/matzehuels/starmap/pkg/pipeline"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InspectModel - Interactive territory browser
// =============================================================================

// Frame is one loaded turn: its input, diagram and traced layers.
type Frame struct {
	Input   *pipeline.Input
	Diagram *voronoi.Diagram
	Layers  [][]merge.Region
}

// FrameLoader loads the frame of a turn.
type FrameLoader func(turn int) (*Frame, error)

type frameMsg struct {
	turn  int
	frame *Frame
	err   error
}

// Views of the inspect model.
const (
	viewRegions = iota
	viewCells
)

// InspectModel is the bubbletea model for browsing territories per turn and
// layer.
type InspectModel struct {
	Load    FrameLoader
	Turns   int
	Turn    int
	Layer   int
	View    int
	Frame   *Frame
	Err     error
	Loading bool
	Cursor  int
	Height  int
	Offset  int
}

// NewInspectModel creates a model that starts at turn start of turns.
func NewInspectModel(load FrameLoader, turns, start int) InspectModel {
	return InspectModel{
		Load:    load,
		Turns:   max(turns, 1),
		Turn:    start,
		Height:  15,
		Loading: true,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return m.loadTurn(m.Turn)
}

func (m InspectModel) loadTurn(turn int) tea.Cmd {
	load := m.Load
	return func() tea.Msg {
		f, err := load(turn)
		return frameMsg{turn: turn, frame: f, err: err}
	}
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.turn != m.Turn {
			return m, nil
		}
		m.Loading = false
		m.Frame, m.Err = msg.frame, msg.err
		if m.Frame != nil {
			m.Layer = min(m.Layer, max(len(m.Frame.Layers)-1, 0))
		}
		m.clampCursor()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Turn > 0 {
				m.Turn--
				m.Loading = true
				return m, m.loadTurn(m.Turn)
			}
		case "right", "l":
			if m.Turn < m.Turns-1 {
				m.Turn++
				m.Loading = true
				return m, m.loadTurn(m.Turn)
			}
		case "[":
			if m.Layer > 0 {
				m.Layer--
				m.clampCursor()
			}
		case "]":
			if m.Frame != nil && m.Layer < len(m.Frame.Layers)-1 {
				m.Layer++
				m.clampCursor()
			}
		case "tab":
			m.View = (m.View + 1) % 2
			m.Cursor, m.Offset = 0, 0
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.rowCount()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-9, 5)
	}
	return m, nil
}

// regions returns the territories at the current layer.
func (m InspectModel) regions() []merge.Region {
	if m.Frame == nil || m.Layer >= len(m.Frame.Layers) {
		return nil
	}
	return m.Frame.Layers[m.Layer]
}

func (m InspectModel) rowCount() int {
	if m.Frame == nil {
		return 0
	}
	if m.View == viewCells {
		return len(m.Frame.Diagram.Cells)
	}
	return len(m.regions())
}

func (m *InspectModel) clampCursor() {
	n := m.rowCount()
	if m.Cursor >= n {
		m.Cursor = max(n-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

func (m InspectModel) View() string {
	var b strings.Builder

	layers := 0
	if m.Frame != nil {
		layers = len(m.Frame.Layers)
	}
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Turn %d/%d", m.Turn+1, m.Turns)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  ·  layer %d/%d", m.Layer, max(layers-1, 0))))
	if m.Loading {
		b.WriteString(StyleDim.Render("  ·  loading…"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ turn  [/] layer  ↑/↓ move  tab cells/regions  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.Err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.Err.Error())
		return b.String()
	case m.Frame == nil:
		return b.String()
	}

	end := min(m.Offset+m.Height, m.rowCount())
	if m.View == viewCells {
		cells := m.Frame.Diagram.Cells[m.Offset:end]
		b.WriteString(cellTable(m.Frame.Input, cells).Render())
	} else {
		b.WriteString(m.regionTable(end).Render())
	}
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, m.rowCount()), m.rowCount())))

	return b.String()
}

// regionTable lists the visible territories of the current layer.
func (m InspectModel) regionTable(end int) *table.Table {
	regions := m.regions()
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	var rows [][]string
	for i := m.Offset; i < end; i++ {
		r := regions[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			ownerLabel(r.Owner),
			fmt.Sprintf("%d", len(r.Sites)),
			fmt.Sprintf("%.2f", r.Area()),
			fmt.Sprintf("%d", max(len(r.Rings)-1, 0)),
			truncate(strings.Join(r.Sites, ", "), 40),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Owner", "Cells", "Area", "Holes", "Sites").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(regions) {
				return lipgloss.NewStyle()
			}
			if col == 1 {
				return ownerStyle(m.Frame.Input, regions[idx].Owner).Bold(idx == m.Cursor)
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
