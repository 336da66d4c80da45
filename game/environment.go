package game

import (
	"fmt"
	"time"

	"github.com/zeu5/dodge-rl/config"
	"golang.org/x/exp/rand"
)

// SpawnProbability is the chance that a new obstacle appears on a tick
const SpawnProbability = 0.2

func clamp(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Environment simulates the two lane dodge game.
// Obstacles enter on the rightmost column and move one column left per tick,
// the agent sits on a fixed column and only changes lane.
type Environment struct {
	config *config.Config
	Width  int
	Height int

	AgentRow int
	AgentCol int

	obstacles []Obstacle
	score     int
	status    Status
	rand      *rand.Rand
}

// NewEnvironment creates a reset environment. A zero seed picks one from the clock.
func NewEnvironment(cfg *config.Config, seed uint64) *Environment {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	e := &Environment{
		config: cfg,
		Width:  cfg.Width,
		Height: cfg.Height,
		rand:   rand.New(rand.NewSource(seed)),
	}
	e.Reset()
	return e
}

// Reset clears obstacles and score and returns the initial state
func (e *Environment) Reset() State {
	e.AgentRow = e.config.AgentRow()
	e.AgentCol = e.config.AgentCol()
	e.obstacles = make([]Obstacle, 0, e.config.MaxObstacles)
	e.score = 0
	e.status = StatusSurvived
	return e.State()
}

// Step executes one tick of the game.
// The returned error wraps ErrInvalidAction, in which case nothing is mutated.
func (e *Environment) Step(a Action) (State, float64, bool, error) {
	if !a.Valid() {
		return e.State(), 0, false, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	if a == Jump {
		e.AgentRow = 0
	} else {
		e.AgentRow = 1
	}

	e.moveObstacles()
	e.spawnObstacle()

	reward := e.config.SurvivalReward
	done := false
	collided := false
	dodged := 0
	// every obstacle in the agent column is scanned, a collision on any of them wins
	for _, o := range e.obstacles {
		if o.Col != e.AgentCol {
			continue
		}
		if o.Row == e.AgentRow {
			collided = true
		} else {
			dodged++
		}
	}
	e.score += dodged

	switch {
	case collided:
		reward = e.config.CollisionReward
		done = true
		e.status = StatusCollision
	case dodged > 0:
		reward = e.config.DodgeReward
		e.status = StatusDodge
	default:
		e.status = StatusSurvived
	}

	return e.State(), reward, done, nil
}

func (e *Environment) moveObstacles() {
	remaining := e.obstacles[:0]
	for _, o := range e.obstacles {
		o.Col -= 1
		if o.Col >= 0 {
			remaining = append(remaining, o)
		}
	}
	e.obstacles = remaining
}

func (e *Environment) spawnObstacle() {
	if len(e.obstacles) >= e.config.MaxObstacles {
		return
	}
	if e.rand.Float64() >= SpawnProbability {
		return
	}
	row := e.rand.Intn(2)
	e.obstacles = append(e.obstacles, Obstacle{
		Row:  row,
		Col:  e.Width - 1,
		Kind: KindForRow(row),
	})
}

// State projects the world onto (distance, kind, row).
// The nearest obstacle is the one with the smallest column, the lowest row wins ties.
func (e *Environment) State() State {
	if len(e.obstacles) == 0 {
		return State{Distance: e.Width, Kind: NoObstacle, Row: e.AgentRow}
	}
	closest := e.obstacles[0]
	for _, o := range e.obstacles[1:] {
		if o.Col < closest.Col || (o.Col == closest.Col && o.Row < closest.Row) {
			closest = o
		}
	}
	return State{
		Distance: clamp(0, e.Width, closest.Col-e.AgentCol),
		Kind:     closest.Kind,
		Row:      e.AgentRow,
	}
}

// Place adds an obstacle at the given lane and column, bypassing the spawn logic
func (e *Environment) Place(row, col int) {
	e.obstacles = append(e.obstacles, Obstacle{Row: row, Col: col, Kind: KindForRow(row)})
}

func (e *Environment) Score() int {
	return e.score
}

// Status of the last tick
func (e *Environment) Status() Status {
	return e.status
}

// Obstacles returns a copy of the live obstacles
func (e *Environment) Obstacles() []Obstacle {
	out := make([]Obstacle, len(e.obstacles))
	copy(out, e.obstacles)
	return out
}

// Grid returns the tile matrix, one row per lane
func (e *Environment) Grid() [][]Tile {
	grid := make([][]Tile, e.Height)
	for i := range grid {
		grid[i] = make([]Tile, e.Width)
	}
	for _, o := range e.obstacles {
		if o.Row < 0 || o.Row >= e.Height || o.Col < 0 || o.Col >= e.Width {
			continue
		}
		if o.Kind == Tree {
			grid[o.Row][o.Col] = TileTree
		} else {
			grid[o.Row][o.Col] = TileBird
		}
	}
	if e.AgentRow >= 0 && e.AgentRow < e.Height && e.AgentCol >= 0 && e.AgentCol < e.Width {
		if e.status == StatusCollision {
			grid[e.AgentRow][e.AgentCol] = TileCollision
		} else {
			grid[e.AgentRow][e.AgentCol] = TileAgent
		}
	}
	return grid
}
