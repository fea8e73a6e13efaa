package turn

// Score sums up one player's position at a turn.
type Score struct {
	Player  string `json:"player"`
	Planets int    `json:"planets"`
	Ships   int    `json:"ships"`
	Fleets  int    `json:"fleets"`
}

// Scores returns a score per player of s, in player order. Ships count both
// garrisons and ships in flight.
func (s *State) Scores() []Score {
	idx := make(map[string]int, len(s.Players))
	out := make([]Score, len(s.Players))
	for i, p := range s.Players {
		idx[p] = i
		out[i].Player = p
	}
	for _, p := range s.Planets {
		if i, ok := idx[p.Owner]; ok {
			out[i].Planets++
			out[i].Ships += p.ShipCount
		}
	}
	for _, e := range s.Expeditions {
		if i, ok := idx[e.Owner]; ok {
			out[i].Fleets++
			out[i].Ships += e.ShipCount
		}
	}
	return out
}

// ChangedOwners returns the names of planets of turn n whose owner differs
// from turn n-1. Every owned planet counts as changed on turn 0.
func (l *Log) ChangedOwners(n int) ([]string, error) {
	cur, err := l.Turn(n)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n += len(l.Turns)
	}
	prev := make(map[string]string)
	if n > 0 {
		for _, p := range l.Turns[n-1].Planets {
			prev[p.Name] = p.Owner
		}
	}
	var out []string
	for _, p := range cur.Planets {
		if before, ok := prev[p.Name]; (ok && before != p.Owner) || (!ok && p.Owner != "") {
			out = append(out, p.Name)
		}
	}
	return out, nil
}
