package experiment

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the finished episodes of a Train or Test call
type Summary struct {
	Name        string    `json:"name"`
	Episodes    int       `json:"episodes"`
	Steps       int       `json:"steps"`
	Collisions  int       `json:"collisions"`
	Dodges      int       `json:"dodges"`
	Returns     []float64 `json:"returns"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Best        float64   `json:"best"`
	Interrupted bool      `json:"interrupted"`
}

func NewSummary(name string) *Summary {
	return &Summary{
		Name:    name,
		Returns: make([]float64, 0),
	}
}

func (s *Summary) Add(t *Trace) {
	s.Episodes++
	s.Steps += t.Len()
	s.Dodges += t.Dodges()
	if t.Collided() {
		s.Collisions++
	}
	s.Returns = append(s.Returns, t.Return())
}

// Finish computes the return statistics
func (s *Summary) Finish() *Summary {
	switch len(s.Returns) {
	case 0:
		s.Mean, s.StdDev, s.Best = 0, 0, 0
	case 1:
		s.Mean, s.StdDev, s.Best = s.Returns[0], 0, s.Returns[0]
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(s.Returns, nil)
		s.Best = s.Returns[0]
		for _, r := range s.Returns[1:] {
			if r > s.Best {
				s.Best = r
			}
		}
	}
	return s
}
