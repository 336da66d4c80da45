package game

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned by Step for anything other than Stay or Jump
var ErrInvalidAction = errors.New("invalid action")

// Action the agent can take on every tick
type Action int

const (
	// Stay keeps the agent on the lower lane
	Stay Action = iota
	// Jump moves the agent to the upper lane
	Jump
)

// NumActions is the length of an action-value vector
const NumActions = 2

// AllActions in index order
var AllActions = []Action{Stay, Jump}

func (a Action) Valid() bool {
	return a == Stay || a == Jump
}

func (a Action) String() string {
	switch a {
	case Stay:
		return "STAY"
	case Jump:
		return "JUMP"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ObstacleKind is fixed at spawn time by the lane of the obstacle
type ObstacleKind int

const (
	NoObstacle ObstacleKind = 0
	Tree       ObstacleKind = 1
	Bird       ObstacleKind = 2
)

// KindForRow returns the obstacle kind spawned on the given lane
func KindForRow(row int) ObstacleKind {
	if row == 0 {
		return Tree
	}
	return Bird
}

func (k ObstacleKind) String() string {
	switch k {
	case Tree:
		return "TREE"
	case Bird:
		return "BIRD"
	default:
		return "NONE"
	}
}

// Status of the last tick
type Status string

const (
	StatusCollision Status = "COLLISION"
	StatusDodge     Status = "DODGE"
	StatusSurvived  Status = "SURVIVED"
)
