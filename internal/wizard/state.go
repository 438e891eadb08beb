package wizard

// Step bounds.
const (
	FirstStep = 1
	LastStep  = 5
	DoneStep  = 6
)

// BulletGroup is one employer with its rewritten bullets.
type BulletGroup struct {
	Company string   `json:"company"`
	Bullets []string `json:"bullets"`
}

// State is the client-owned projection of one wizard run. The server keeps
// the scan record; it never stores step or watermark.
type State struct {
	Step      int
	Watermark int
	Active    bool

	JobDescription string
	Company        string
	JobTitle       string
	Keywords       []string
	Resume         string
	Bullets        []BulletGroup
	CoverLetter    string
	ScanID         string
}

func initialState() State {
	return State{Step: FirstStep, Watermark: FirstStep, Active: true}
}

func (s State) clone() State {
	out := s
	out.Keywords = append([]string(nil), s.Keywords...)
	if s.Bullets != nil {
		out.Bullets = make([]BulletGroup, len(s.Bullets))
		for i, g := range s.Bullets {
			out.Bullets[i] = BulletGroup{Company: g.Company, Bullets: append([]string(nil), g.Bullets...)}
		}
	}
	return out
}

// clearAfter drops everything produced by steps after step.
func (s *State) clearAfter(step int) {
	switch step {
	case 1:
		s.Keywords = nil
		s.ScanID = ""
		s.Resume = ""
		s.Bullets = nil
		s.CoverLetter = ""
	case 2, 3:
		s.Bullets = nil
		s.CoverLetter = ""
	case 4:
		s.CoverLetter = ""
	}
}
