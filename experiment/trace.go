package experiment

import (
	"encoding/json"

	"github.com/zeu5/dodge-rl/game"
)

// Step is one transition of an episode
type Step struct {
	Step   int         `json:"step"`
	State  game.State  `json:"state"`
	Action game.Action `json:"action"`
	Reward float64     `json:"reward"`
	Next   game.State  `json:"next"`
	Done   bool        `json:"done"`
	Status game.Status `json:"status"`
}

// Trace of an episode
type Trace struct {
	Episode int
	Explore bool
	steps   []Step
}

func NewTrace(episode int, explore bool) *Trace {
	return &Trace{
		Episode: episode,
		Explore: explore,
		steps:   make([]Step, 0),
	}
}

func (t *Trace) Append(s Step) {
	t.steps = append(t.steps, s)
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Get(i int) (Step, bool) {
	if i < 0 || i >= len(t.steps) {
		return Step{}, false
	}
	return t.steps[i], true
}

func (t *Trace) Last() (Step, bool) {
	return t.Get(len(t.steps) - 1)
}

// Return is the undiscounted sum of rewards
func (t *Trace) Return() float64 {
	sum := 0.0
	for _, s := range t.steps {
		sum += s.Reward
	}
	return sum
}

// Collided reports whether the episode ended on a collision
func (t *Trace) Collided() bool {
	last, ok := t.Last()
	return ok && last.Status == game.StatusCollision
}

func (t *Trace) Dodges() int {
	count := 0
	for _, s := range t.steps {
		if s.Status == game.StatusDodge {
			count++
		}
	}
	return count
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Episode int     `json:"episode"`
		Explore bool    `json:"explore"`
		Return  float64 `json:"return"`
		Steps   []Step  `json:"steps"`
	}{t.Episode, t.Explore, t.Return(), t.steps})
}
