package turn

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

// Log is a decoded match log.
type Log struct {
	Turns []State `json:"turns"`
}

// State is the board at one turn.
type State struct {
	Players     []string     `json:"players"`
	Planets     []Planet     `json:"planets"`
	Expeditions []Expedition `json:"expeditions,omitempty"`
}

// Planet is one planet on the board. Owner is empty for neutral planets.
type Planet struct {
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Owner     string  `json:"owner,omitempty"`
	ShipCount int     `json:"ship_count"`
}

// Point returns the planet location with unit weight.
func (p Planet) Point() geom.Point { return geom.Pt(p.X, p.Y) }

// Neutral reports whether nobody owns the planet.
func (p Planet) Neutral() bool { return p.Owner == "" }

// Expedition is a fleet in flight between two planets.
type Expedition struct {
	ID             int    `json:"id"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Owner          string `json:"owner,omitempty"`
	ShipCount      int    `json:"ship_count"`
	TurnsRemaining int    `json:"turns_remaining"`
}

// Decode reads a match log from r and validates it.
func Decode(r io.Reader) (*Log, error) {
	var l Log
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTurn, err, "decode turn log")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Parse decodes a match log held in memory.
func Parse(data []byte) (*Log, error) {
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTurn, err, "decode turn log")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReadFile decodes the match log stored at path.
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks every turn: planet names are valid and unique, coordinates
// are finite, ship counts are not negative and expeditions connect known
// planets.
func (l *Log) Validate() error {
	if len(l.Turns) == 0 {
		return errors.New(errors.ErrCodeInvalidTurn, "turn log has no turns")
	}
	for i := range l.Turns {
		if err := l.Turns[i].validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTurn, err, "turn %d", i)
		}
	}
	return nil
}

func (s *State) validate() error {
	seen := make(map[string]bool, len(s.Planets))
	for _, p := range s.Planets {
		if err := errors.ValidateName(p.Name); err != nil {
			return err
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidTurn, "duplicate planet %q", p.Name)
		}
		seen[p.Name] = true
		if err := errors.ValidateCoordinate("planet "+p.Name+" x", p.X); err != nil {
			return err
		}
		if err := errors.ValidateCoordinate("planet "+p.Name+" y", p.Y); err != nil {
			return err
		}
		if p.ShipCount < 0 {
			return errors.New(errors.ErrCodeInvalidTurn, "planet %q has %d ships", p.Name, p.ShipCount)
		}
	}
	for _, e := range s.Expeditions {
		if !seen[e.Origin] || !seen[e.Destination] {
			return errors.New(errors.ErrCodeInvalidTurn, "expedition %d connects unknown planets %q and %q", e.ID, e.Origin, e.Destination)
		}
	}
	return nil
}

// Len returns the number of turns.
func (l *Log) Len() int { return len(l.Turns) }

// Turn returns turn n. Negative n counts from the end, so -1 is the final
// turn.
func (l *Log) Turn(n int) (*State, error) {
	if n < 0 {
		n += len(l.Turns)
	}
	if n < 0 || n >= len(l.Turns) {
		return nil, errors.New(errors.ErrCodeInvalidTurn, "turn %d out of range [0, %d)", n, len(l.Turns))
	}
	return &l.Turns[n], nil
}

// Players returns every player named in any turn, in order of first
// appearance. The order fixes player colours across the whole match.
func (l *Log) Players() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range l.Turns {
		for _, p := range s.Players {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Planet returns the planet called name.
func (s *State) Planet(name string) (Planet, bool) {
	for _, p := range s.Planets {
		if p.Name == name {
			return p, true
		}
	}
	return Planet{}, false
}

// Position returns where expedition e is drawn: on the straight line from
// its destination back toward its origin, turns_remaining steps out.
func (s *State) Position(e Expedition) (geom.Point, bool) {
	origin, ok := s.Planet(e.Origin)
	if !ok {
		return geom.Point{}, false
	}
	dest, ok := s.Planet(e.Destination)
	if !ok {
		return geom.Point{}, false
	}
	total := math.Ceil(geom.Distance(origin.Point(), dest.Point()))
	if total == 0 {
		return dest.Point(), true
	}
	f := float64(e.TurnsRemaining) / total
	return geom.Pt(dest.X+(origin.X-dest.X)*f, dest.Y+(origin.Y-dest.Y)*f), true
}
