// Package render displays the driver loop: a console view redrawn in place
// and an HTTP endpoint serving the latest observation.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uilive"
	"github.com/logrusorgru/aurora"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/experiment"
	"github.com/zeu5/dodge-rl/game"
)

// Console redraws the grid and the agent diagnostics after every tick
type Console struct {
	config *config.Config
	writer *uilive.Writer
	au     aurora.Aurora
	delay  time.Duration
}

var _ experiment.Observer = &Console{}

// NewConsole writes to out, colouring tiles when colors is set
func NewConsole(cfg *config.Config, out io.Writer, colors bool) *Console {
	writer := uilive.New()
	writer.Out = out
	return &Console{
		config: cfg,
		writer: writer,
		au:     aurora.NewAurora(colors),
		delay:  cfg.RenderDelayDuration(),
	}
}

// SetDelay overrides the pause after each frame
func (c *Console) SetDelay(d time.Duration) {
	c.delay = d
}

func (c *Console) Start() {
	c.writer.Start()
}

func (c *Console) Stop() {
	c.writer.Stop()
}

func (c *Console) Observe(o experiment.Observation) {
	fmt.Fprint(c.writer, c.Frame(o))
	c.writer.Flush()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
}

func (c *Console) tile(t game.Tile) string {
	switch t {
	case game.TileAgent:
		return c.au.Green(c.config.AgentSymbol).String()
	case game.TileTree:
		return c.au.Yellow(c.config.TreeSymbol).String()
	case game.TileBird:
		return c.au.Blue(c.config.BirdSymbol).String()
	case game.TileCollision:
		return c.au.Red(c.config.CollisionSymbol).String()
	default:
		return c.config.EmptySymbol
	}
}

// Frame formats one observation
func (c *Console) Frame(o experiment.Observation) string {
	var b strings.Builder
	for _, row := range o.Grid {
		for _, t := range row {
			b.WriteString(c.tile(t))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Score: %d\n", o.Score)
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "State: Distance=%d | Obstacle=%d | Row=%d\n", o.State.Distance, int(o.State.Kind), o.State.Row)
	fmt.Fprintf(&b, "Action: %s | Reward: %g | Status: %s\n", o.Action, o.Reward, c.status(o.Status))
	fmt.Fprintf(&b, "Episode: %d | Step: %d | Epsilon: %.3f\n", o.Episode, o.Step, o.Epsilon)
	fmt.Fprintf(&b, "Q-values: [STAY=%.2f, JUMP=%.2f]\n", o.Values[game.Stay], o.Values[game.Jump])
	fmt.Fprintf(&b, "Predicted Best Action: %s\n", o.Values.Best())
	return b.String()
}

func (c *Console) status(s game.Status) string {
	switch s {
	case game.StatusCollision:
		return c.au.Red(s).String()
	case game.StatusDodge:
		return c.au.Green(s).String()
	default:
		return string(s)
	}
}
