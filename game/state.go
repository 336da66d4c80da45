package game

import "fmt"

// State is the discretized observation used as the Q table key.
// It is comparable and can be used directly as a map key.
type State struct {
	Distance int          `json:"distance"`
	Kind     ObstacleKind `json:"kind"`
	Row      int          `json:"row"`
}

func (s State) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Distance, s.Kind, s.Row)
}

// Tuple returns the components in key order
func (s State) Tuple() [3]int {
	return [3]int{s.Distance, int(s.Kind), s.Row}
}

// StateFromTuple is the inverse of Tuple
func StateFromTuple(t [3]int) State {
	return State{Distance: t[0], Kind: ObstacleKind(t[1]), Row: t[2]}
}

// Less orders states by distance, kind and row
func (s State) Less(other State) bool {
	if s.Distance != other.Distance {
		return s.Distance < other.Distance
	}
	if s.Kind != other.Kind {
		return s.Kind < other.Kind
	}
	return s.Row < other.Row
}

// Obstacle moving toward the agent
type Obstacle struct {
	Row  int
	Col  int
	Kind ObstacleKind
}

// Tile of the rendered grid
type Tile int

const (
	TileEmpty Tile = iota
	TileAgent
	TileTree
	TileBird
	TileCollision
)
