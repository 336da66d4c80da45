package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/game"
)

func newTestAgent() *Agent {
	cfg := config.Defaults()
	cfg.LearningRate = 0.1
	cfg.DiscountFactor = 0.95
	return NewAgent(cfg, 11)
}

func TestValuesLazyDefault(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 4, Kind: game.Bird, Row: 1}

	v := a.Values(s)
	assert.Equal(t, Values{0, 0}, *v)
	assert.Equal(t, 1, a.Len())
	assert.Same(t, v, a.Values(s))

	require.NoError(t, a.Update(s, game.Jump, 10, s))
	again := a.Values(s)
	assert.Same(t, v, again)
	assert.NotEqual(t, 0.0, again[game.Jump])
}

func TestUpdateRule(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 3, Kind: game.Tree, Row: 1}
	next := game.State{Distance: 2, Kind: game.Tree, Row: 1}

	require.NoError(t, a.Update(s, game.Stay, 10, next))
	assert.InDelta(t, 1.0, a.Values(s)[game.Stay], 1e-12)
	assert.Equal(t, 0.0, a.Values(s)[game.Jump])
	assert.True(t, a.Table().HasState(next))
}

func TestUpdateUsesBestNextValue(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 3, Kind: game.Tree, Row: 1}
	next := game.State{Distance: 2, Kind: game.Tree, Row: 1}
	a.Table().Set(next, Values{2, 5})

	require.NoError(t, a.Update(s, game.Jump, 0, next))
	assert.InDelta(t, 0.1*0.95*5, a.Values(s)[game.Jump], 1e-12)
}

func TestUpdateRejectsInvalidAction(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 3, Kind: game.Tree, Row: 1}
	assert.ErrorIs(t, a.Update(s, game.Action(2), 1, s), game.ErrInvalidAction)
}

func TestChooseActionTieGoesToStay(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 1, Kind: game.Bird, Row: 0}
	a.Table().Set(s, Values{2.0, 2.0})

	for i := 0; i < 100; i++ {
		assert.Equal(t, game.Stay, a.ChooseAction(s, false))
	}
}

func TestChooseActionGreedy(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 1, Kind: game.Bird, Row: 0}
	a.Table().Set(s, Values{-1, 3})
	a.SetEpsilon(0)

	assert.Equal(t, game.Jump, a.ChooseAction(s, false))
	assert.Equal(t, game.Jump, a.ChooseAction(s, true))
}

func TestChooseActionExplores(t *testing.T) {
	a := newTestAgent()
	s := game.State{Distance: 1, Kind: game.Bird, Row: 0}
	a.Table().Set(s, Values{5, 0})
	a.SetEpsilon(1)

	counts := make(map[game.Action]int)
	for i := 0; i < 500; i++ {
		counts[a.ChooseAction(s, true)]++
	}
	assert.Greater(t, counts[game.Stay], 0)
	assert.Greater(t, counts[game.Jump], 0)
}

func TestPruneKeepsLargestMagnitudes(t *testing.T) {
	a := newTestAgent()
	states := []game.State{
		{Distance: 1, Kind: game.Tree, Row: 0},
		{Distance: 2, Kind: game.Tree, Row: 0},
		{Distance: 3, Kind: game.Tree, Row: 0},
		{Distance: 4, Kind: game.Tree, Row: 0},
		{Distance: 5, Kind: game.Tree, Row: 0},
	}
	a.Table().Set(states[0], Values{0.1, 0})
	a.Table().Set(states[1], Values{-50, 1})
	a.Table().Set(states[2], Values{0, 0})
	// sum 12 outranks sum 10 even though its largest value is smaller
	a.Table().Set(states[3], Values{6, -6})
	a.Table().Set(states[4], Values{10, 0})

	dropped := a.Prune(2)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, 2, a.Len())
	for _, kept := range []int{1, 3} {
		assert.True(t, a.Table().HasState(states[kept]), "state %d should be kept", kept)
	}
	for _, gone := range []int{0, 2, 4} {
		assert.False(t, a.Table().HasState(states[gone]), "state %d should be dropped", gone)
	}

	assert.Equal(t, 0, a.Prune(2))
	assert.Equal(t, 0, a.Prune(10))
	assert.Equal(t, 2, a.Len())
}

func TestValuesHelpers(t *testing.T) {
	v := Values{-4, 2}
	assert.Equal(t, 2.0, v.Max())
	assert.Equal(t, game.Jump, v.Best())
	assert.Equal(t, 6.0, v.Magnitude())

	tie := Values{1, 1}
	assert.Equal(t, game.Stay, tie.Best())
}

func TestSnapshotIsSortedCopy(t *testing.T) {
	a := newTestAgent()
	a.Table().Set(game.State{Distance: 9}, Values{1, 1})
	a.Table().Set(game.State{Distance: 2}, Values{2, 2})

	snap := a.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 2, snap[0].State.Distance)
	snap[0].Values[0] = 100
	v, _ := a.Table().Get(game.State{Distance: 2})
	assert.Equal(t, 2.0, v[0])
}
