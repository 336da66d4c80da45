// Package agent implements the tabular Q-learning agent: an epsilon greedy
// policy over a lazily grown action-value table, the one step update rule,
// pruning and persistence of the table.
package agent

import (
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/game"
	"golang.org/x/exp/rand"
)

type Agent struct {
	config  *config.Config
	qTable  *QTable
	epsilon float64
	rand    *rand.Rand
	logger  log.Logger
}

// NewAgent creates an agent with an empty table and the configured initial epsilon.
// A zero seed picks one from the clock.
func NewAgent(cfg *config.Config, seed uint64) *Agent {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Agent{
		config:  cfg,
		qTable:  NewQTable(),
		epsilon: cfg.InitialEpsilon,
		rand:    rand.New(rand.NewSource(seed)),
		logger:  log.NewNopLogger(),
	}
}

func (a *Agent) SetLogger(logger log.Logger) {
	a.logger = logger
}

func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// SetEpsilon is used by the driver to decay exploration between episodes
func (a *Agent) SetEpsilon(e float64) {
	a.epsilon = e
}

func (a *Agent) Table() *QTable {
	return a.qTable
}

func (a *Agent) Len() int {
	return a.qTable.Len()
}

// Values returns the row for state, creating it on first access
func (a *Agent) Values(state game.State) *Values {
	return a.qTable.Upsert(state)
}

// ChooseAction picks a random action with probability epsilon when exploring,
// otherwise the greedy action with ties going to Stay
func (a *Agent) ChooseAction(state game.State, explore bool) game.Action {
	if explore && a.rand.Float64() < a.epsilon {
		return game.AllActions[a.rand.Intn(len(game.AllActions))]
	}
	return a.Values(state).Best()
}

// Update applies Q[s][a] += lr * (reward + gamma * max(Q[next]) - Q[s][a])
func (a *Agent) Update(state game.State, action game.Action, reward float64, next game.State) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %d", game.ErrInvalidAction, int(action))
	}
	nextMax := a.Values(next).Max()
	cur := a.Values(state)
	target := reward + a.config.DiscountFactor*nextMax
	cur[action] += a.config.LearningRate * (target - cur[action])

	level.Debug(a.logger).Log("msg", "updated q value", "state", state.Hash(), "action", action, "value", fmt.Sprintf("%.2f", cur[action]))
	return nil
}

// Prune bounds the table to maxSize rows, see QTable.Prune
func (a *Agent) Prune(maxSize int) int {
	dropped := a.qTable.Prune(maxSize)
	if dropped > 0 {
		level.Info(a.logger).Log("msg", "pruned q table", "size", maxSize, "dropped", dropped)
	}
	return dropped
}

// Snapshot returns a sorted copy of the table
func (a *Agent) Snapshot() []Entry {
	return a.qTable.Entries()
}
