// Package config holds the immutable run configuration shared by the
// environment, the agent and the driver.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is populated once at startup and passed by pointer.
// Only the driver changes epsilon, and it does so on the agent, never here.
type Config struct {
	Width                int    `json:"width" yaml:"width"`
	Height               int    `json:"height" yaml:"height"`
	InitialAgentPosition [2]int `json:"initial_agent_position" yaml:"initial_agent_position"`

	Episodes int `json:"episodes" yaml:"episodes"`
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	DiscountFactor float64 `json:"discount_factor" yaml:"discount_factor"`
	InitialEpsilon float64 `json:"initial_epsilon" yaml:"initial_epsilon"`
	MinEpsilon     float64 `json:"min_epsilon" yaml:"min_epsilon"`
	EpsilonDecay   float64 `json:"epsilon_decay" yaml:"epsilon_decay"`

	CollisionReward float64 `json:"collision_reward" yaml:"collision_reward"`
	DodgeReward     float64 `json:"dodge_reward" yaml:"dodge_reward"`
	SurvivalReward  float64 `json:"survival_reward" yaml:"survival_reward"`

	MaxObstacles int `json:"max_obstacles" yaml:"max_obstacles"`
	MaxTableSize int `json:"max_table_size" yaml:"max_table_size"`

	// seconds between two rendered frames
	RenderDelay     float64 `json:"render_delay" yaml:"render_delay"`
	AgentSymbol     string  `json:"agent_symbol" yaml:"agent_symbol"`
	TreeSymbol      string  `json:"tree_symbol" yaml:"tree_symbol"`
	BirdSymbol      string  `json:"bird_symbol" yaml:"bird_symbol"`
	CollisionSymbol string  `json:"collision_symbol" yaml:"collision_symbol"`
	EmptySymbol     string  `json:"empty_symbol" yaml:"empty_symbol"`
}

func Defaults() *Config {
	return &Config{
		Width:                20,
		Height:               2,
		InitialAgentPosition: [2]int{0, 0},
		Episodes:             1000,
		MaxSteps:             100,
		LearningRate:         0.1,
		DiscountFactor:       0.95,
		InitialEpsilon:       0.1,
		MinEpsilon:           0.01,
		EpsilonDecay:         0.995,
		CollisionReward:      -100,
		DodgeReward:          10,
		SurvivalReward:       1,
		MaxObstacles:         2,
		MaxTableSize:         100000,
		RenderDelay:          0.1,
		AgentSymbol:          "@",
		TreeSymbol:           "♧",
		BirdSymbol:           "^",
		CollisionSymbol:      "☆",
		EmptySymbol:          " ",
	}
}

func (c *Config) AgentRow() int {
	return c.InitialAgentPosition[0]
}

func (c *Config) AgentCol() int {
	return c.InitialAgentPosition[1]
}

func (c *Config) RenderDelayDuration() time.Duration {
	return time.Duration(c.RenderDelay * float64(time.Second))
}

// Validate checks that the values describe a playable game
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidConfig, c.Width)
	case c.Height != 2:
		return fmt.Errorf("%w: height must be 2, got %d", ErrInvalidConfig, c.Height)
	case c.AgentRow() < 0 || c.AgentRow() >= c.Height:
		return fmt.Errorf("%w: agent row %d outside the grid", ErrInvalidConfig, c.AgentRow())
	case c.AgentCol() < 0 || c.AgentCol() >= c.Width:
		return fmt.Errorf("%w: agent column %d outside the grid", ErrInvalidConfig, c.AgentCol())
	case c.Episodes <= 0:
		return fmt.Errorf("%w: episodes must be positive", ErrInvalidConfig)
	case c.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps must be positive", ErrInvalidConfig)
	case c.LearningRate < 0 || c.LearningRate > 1:
		return fmt.Errorf("%w: learning_rate must be in [0, 1]", ErrInvalidConfig)
	case c.DiscountFactor < 0 || c.DiscountFactor > 1:
		return fmt.Errorf("%w: discount_factor must be in [0, 1]", ErrInvalidConfig)
	case c.MinEpsilon < 0 || c.MinEpsilon > c.InitialEpsilon || c.InitialEpsilon > 1:
		return fmt.Errorf("%w: epsilon bounds must satisfy 0 <= min <= initial <= 1", ErrInvalidConfig)
	case c.EpsilonDecay <= 0 || c.EpsilonDecay > 1:
		return fmt.Errorf("%w: epsilon_decay must be in (0, 1]", ErrInvalidConfig)
	case c.MaxObstacles < 0:
		return fmt.Errorf("%w: max_obstacles cannot be negative", ErrInvalidConfig)
	case c.MaxTableSize <= 0:
		return fmt.Errorf("%w: max_table_size must be positive", ErrInvalidConfig)
	case c.RenderDelay < 0:
		return fmt.Errorf("%w: render_delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load starts from the defaults and overlays the file at path when it exists.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Defaults()
	bs, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(bs, c)
	} else {
		err = json.Unmarshal(bs, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the config as indented JSON, or YAML for .yaml/.yml paths
func (c *Config) Save(path string) error {
	var bs []byte
	var err error
	if isYAML(path) {
		bs, err = yaml.Marshal(c)
	} else {
		bs, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0644)
}
