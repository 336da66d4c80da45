package experiment

import (
	"github.com/zeu5/dodge-rl/agent"
	"github.com/zeu5/dodge-rl/game"
)

// Observation is handed to every observer after each tick
type Observation struct {
	Score   int           `json:"score"`
	State   game.State    `json:"state"`
	Action  game.Action   `json:"action"`
	Reward  float64       `json:"reward"`
	Status  game.Status   `json:"status"`
	Episode int           `json:"episode"`
	Step    int           `json:"step"`
	Epsilon float64       `json:"epsilon"`
	Values  agent.Values  `json:"values"`
	Explore bool          `json:"explore"`
	Grid    [][]game.Tile `json:"grid"`
}

// Observer is the render callback of the driver loop
type Observer interface {
	Observe(Observation)
}

type ObserverFunc func(Observation)

func (f ObserverFunc) Observe(o Observation) {
	f(o)
}
