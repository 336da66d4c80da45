// Package experiment drives the agent against the environment: episodes,
// training with epsilon decay and pruning, greedy evaluation, observers for
// rendering, trace recording and the analysis of episode returns.
package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/zeu5/dodge-rl/agent"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/game"
	"github.com/zeu5/dodge-rl/util"
)

// logEvery is the number of training episodes between two progress log lines
const logEvery = 100

// Runner owns the environment and the agent for the lifetime of a run
type Runner struct {
	config      *config.Config
	environment *game.Environment
	agent       *agent.Agent
	observers   []Observer
	analyzers   []Analyzer
	logger      log.Logger

	// JSON lines file the traces are appended to, empty disables recording
	recordPath string
}

func NewRunner(cfg *config.Config, env *game.Environment, a *agent.Agent, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Runner{
		config:      cfg,
		environment: env,
		agent:       a,
		observers:   make([]Observer, 0),
		analyzers:   make([]Analyzer, 0),
		logger:      logger,
	}
}

func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

func (r *Runner) AddAnalyzer(a Analyzer) {
	r.analyzers = append(r.analyzers, a)
}

// RecordTraces appends every finished episode to the JSON lines file at path
func (r *Runner) RecordTraces(path string) {
	r.recordPath = path
}

func (r *Runner) Agent() *agent.Agent {
	return r.agent
}

func (r *Runner) Environment() *game.Environment {
	return r.environment
}

// RunEpisode plays one episode of at most MaxSteps ticks, updating the agent when exploring.
// A cancelled context stops the episode between two ticks and its error is returned with
// the partial trace.
func (r *Runner) RunEpisode(ctx context.Context, episode int, explore bool) (*Trace, error) {
	state := r.environment.Reset()
	trace := NewTrace(episode, explore)

	for i := 0; i < r.config.MaxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return trace, err
		}

		action := r.agent.ChooseAction(state, explore)
		next, reward, done, err := r.environment.Step(action)
		if err != nil {
			return trace, err
		}
		if explore {
			if err := r.agent.Update(state, action, reward, next); err != nil {
				return trace, err
			}
		}

		status := r.environment.Status()
		trace.Append(Step{
			Step:   i,
			State:  state,
			Action: action,
			Reward: reward,
			Next:   next,
			Done:   done,
			Status: status,
		})
		r.notify(Observation{
			Score:   r.environment.Score(),
			State:   state,
			Action:  action,
			Reward:  reward,
			Status:  status,
			Episode: episode,
			Step:    i,
			Epsilon: r.agent.Epsilon(),
			Values:  *r.agent.Values(state),
			Explore: explore,
			Grid:    r.environment.Grid(),
		})

		state = next
		if done {
			break
		}
	}

	for _, a := range r.analyzers {
		a.Analyze(episode, trace)
	}
	if r.recordPath != "" {
		r.recordTrace(trace)
	}
	return trace, nil
}

func (r *Runner) notify(o Observation) {
	for _, obs := range r.observers {
		obs.Observe(o)
	}
}

func (r *Runner) recordTrace(trace *Trace) {
	bs, err := json.Marshal(trace)
	if err != nil {
		level.Error(r.logger).Log("msg", "encoding trace", "err", err)
		return
	}
	if err := util.AppendToFile(r.recordPath, string(bs)); err != nil {
		level.Error(r.logger).Log("msg", "recording trace", "path", r.recordPath, "err", err)
	}
}

func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// Train runs exploring episodes. After each episode epsilon decays towards
// MinEpsilon and the table is pruned to MaxTableSize. Cancelling the context
// stops training between two ticks and the summary covers the finished episodes.
func (r *Runner) Train(ctx context.Context, episodes int) (*Summary, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", episodes)
	}
	summary := NewSummary("train")
	for ep := 0; ep < episodes; ep++ {
		trace, err := r.RunEpisode(ctx, ep, true)
		if interrupted(ctx, err) {
			summary.Interrupted = true
			break
		}
		if err != nil {
			return summary.Finish(), err
		}
		summary.Add(trace)

		r.agent.SetEpsilon(math.Max(r.config.MinEpsilon, r.agent.Epsilon()*r.config.EpsilonDecay))
		r.agent.Prune(r.config.MaxTableSize)

		if ep%logEvery == 0 {
			level.Info(r.logger).Log("msg", "training", "episode", ep, "return", trace.Return(), "epsilon", fmt.Sprintf("%.3f", r.agent.Epsilon()), "states", r.agent.Len())
		}
	}
	summary.Finish()
	level.Info(r.logger).Log("msg", "training finished", "episodes", summary.Episodes, "mean_return", fmt.Sprintf("%.2f", summary.Mean), "interrupted", summary.Interrupted)
	return summary, nil
}

// Test runs greedy episodes without updating the agent
func (r *Runner) Test(ctx context.Context, episodes int) (*Summary, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", episodes)
	}
	summary := NewSummary("test")
	for ep := 0; ep < episodes; ep++ {
		trace, err := r.RunEpisode(ctx, ep, false)
		if interrupted(ctx, err) {
			summary.Interrupted = true
			break
		}
		if err != nil {
			return summary.Finish(), err
		}
		summary.Add(trace)
	}
	summary.Finish()
	if summary.Episodes > 0 {
		level.Info(r.logger).Log("msg", "test completed", "average_return", fmt.Sprintf("%.2f", summary.Mean), "episodes", summary.Episodes)
	}
	return summary, nil
}
