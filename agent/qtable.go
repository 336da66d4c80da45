package agent

import (
	"math"
	"sort"

	"github.com/zeu5/dodge-rl/game"
)

// Values holds one action value per action, indexed by game.Action
type Values [game.NumActions]float64

// Max returns the largest action value
func (v *Values) Max() float64 {
	max := v[0]
	for _, val := range v[1:] {
		if val > max {
			max = val
		}
	}
	return max
}

// Best returns the action with the strictly largest value, lowest index on ties
func (v *Values) Best() game.Action {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return game.Action(best)
}

// Magnitude is the sum of absolute action values, used to rank entries when pruning
func (v *Values) Magnitude() float64 {
	sum := 0.0
	for _, val := range v {
		sum += math.Abs(val)
	}
	return sum
}

// Entry is a copy of one row of the table
type Entry struct {
	State  game.State
	Values Values
}

// QTable maps states to action values.
// Rows are created lazily by Upsert.
type QTable struct {
	table map[game.State]*Values
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[game.State]*Values),
	}
}

// Upsert returns the row for state, inserting a zero row the first time the state is seen.
// The returned pointer stays valid until the row is pruned or the table replaced.
func (q *QTable) Upsert(state game.State) *Values {
	if v, ok := q.table[state]; ok {
		return v
	}
	v := &Values{}
	q.table[state] = v
	return v
}

// Get returns the row for state without inserting it
func (q *QTable) Get(state game.State) (Values, bool) {
	v, ok := q.table[state]
	if !ok {
		return Values{}, false
	}
	return *v, true
}

func (q *QTable) Set(state game.State, values Values) {
	v := q.Upsert(state)
	*v = values
}

func (q *QTable) HasState(state game.State) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) Len() int {
	return len(q.table)
}

// Entries returns a copy of all rows sorted by state
func (q *QTable) Entries() []Entry {
	entries := make([]Entry, 0, len(q.table))
	for s, v := range q.table {
		entries = append(entries, Entry{State: s, Values: *v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].State.Less(entries[j].State)
	})
	return entries
}

// Prune keeps the maxSize rows with the largest magnitude and returns how many were dropped.
// Rows with equal magnitude are ranked by state order.
func (q *QTable) Prune(maxSize int) int {
	if maxSize < 0 {
		maxSize = 0
	}
	if len(q.table) <= maxSize {
		return 0
	}
	entries := q.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Values.Magnitude() < entries[j].Values.Magnitude()
	})
	drop := len(entries) - maxSize
	for _, e := range entries[:drop] {
		delete(q.table, e.State)
	}
	return drop
}
