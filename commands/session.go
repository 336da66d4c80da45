// Package commands is the command line of dodge-rl: train, evaluate, config
// and the interactive menu.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/zeu5/dodge-rl/agent"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/experiment"
	"github.com/zeu5/dodge-rl/game"
	"github.com/zeu5/dodge-rl/logging"
	"github.com/zeu5/dodge-rl/render"
)

// redis keys are namespaced under this prefix
const redisPrefix = "dodge-rl:"

// plotWindow is the moving average window of the return plots
const plotWindow = 50

// session is the environment, the agent and where its state lives, shared by
// the subcommands and the menu
type session struct {
	config      *config.Config
	logger      log.Logger
	closers     []io.Closer
	environment *game.Environment
	agent       *agent.Agent
	store       agent.Store
	stateKey    string
	out         io.Writer
}

// runOptions select what observes a Train or Test call
type runOptions struct {
	render     bool
	progress   bool
	httpAddr   string
	plotPath   string
	recordPath string
}

func newSession(out io.Writer) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if maxSteps > 0 {
		cfg.MaxSteps = maxSteps
	}

	logger, logCloser, err := logging.New(logging.Options{File: logPath, Level: logLevel})
	if err != nil {
		return nil, err
	}

	agentSeed := seed
	if seed != 0 {
		agentSeed = seed + 1
	}
	a := agent.NewAgent(cfg, agentSeed)
	a.SetLogger(log.With(logger, "component", "agent"))

	s := &session{
		config:      cfg,
		logger:      logger,
		closers:     []io.Closer{logCloser},
		environment: game.NewEnvironment(cfg, seed),
		agent:       a,
		store:       agent.FileStore{},
		stateKey:    statePath,
		out:         out,
	}
	if redisAddr != "" {
		redisStore := agent.NewRedisStore(redisAddr, redisPrefix)
		s.store = redisStore
		s.closers = append(s.closers, redisStore)
	}
	return s, nil
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

func (s *session) runner(opts runOptions, episodes int, desc string) (*experiment.Runner, func()) {
	runner := experiment.NewRunner(s.config, s.environment, s.agent, log.With(s.logger, "component", "runner"))
	cleanup := func() {}
	if opts.render {
		console := render.NewConsole(s.config, s.out, true)
		console.Start()
		runner.AddObserver(console)
		cleanup = console.Stop
	} else if opts.progress {
		runner.AddObserver(render.NewProgress(desc, episodes, s.out))
	}
	if opts.recordPath != "" {
		runner.RecordTraces(opts.recordPath)
	}
	return runner, cleanup
}

// serveStatus starts the status server for the duration of a run
func (s *session) serveStatus(ctx context.Context, runner *experiment.Runner, addr string) (*render.StatusServer, context.CancelFunc) {
	server := render.NewStatusServer(log.With(s.logger, "component", "http"))
	runner.AddObserver(server)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := server.Run(serverCtx, addr); err != nil {
			level.Error(s.logger).Log("msg", "status server", "err", err)
		}
	}()
	return server, cancel
}

func (s *session) train(ctx context.Context, episodes int, opts runOptions) (*experiment.Summary, error) {
	runner, cleanup := s.runner(opts, episodes, "Training")
	defer cleanup()

	var server *render.StatusServer
	if opts.httpAddr != "" {
		var stop context.CancelFunc
		server, stop = s.serveStatus(ctx, runner, opts.httpAddr)
		defer stop()
	}
	analyzer := experiment.NewReturnAnalyzer()
	if opts.plotPath != "" {
		runner.AddAnalyzer(analyzer)
	}

	summary, err := runner.Train(ctx, episodes)
	if err != nil {
		return nil, err
	}
	if server != nil {
		server.SetSummary(summary)
	}
	if opts.plotPath != "" {
		err := experiment.Compare(
			[]string{"train"},
			[]experiment.Analyzer{analyzer},
			experiment.PlotReturns(opts.plotPath, plotWindow),
			experiment.ChartReturns(opts.plotPath, plotWindow),
		)
		if err != nil {
			level.Error(s.logger).Log("msg", "plotting returns", "err", err)
		}
	}
	return summary, nil
}

func (s *session) test(ctx context.Context, episodes int, opts runOptions) (*experiment.Summary, error) {
	runner, cleanup := s.runner(opts, episodes, "Testing")
	defer cleanup()

	if opts.httpAddr != "" {
		server, stop := s.serveStatus(ctx, runner, opts.httpAddr)
		defer stop()
		summary, err := runner.Test(ctx, episodes)
		if err == nil {
			server.SetSummary(summary)
		}
		return summary, err
	}
	return runner.Test(ctx, episodes)
}

func (s *session) saveState(ctx context.Context, key string) error {
	return s.agent.SaveTo(ctx, s.store, key)
}

func (s *session) loadState(ctx context.Context, key string) error {
	return s.agent.LoadFrom(ctx, s.store, key)
}

// loadIfPresent loads the saved state, starting fresh when there is none
func (s *session) loadIfPresent(ctx context.Context) error {
	err := s.loadState(ctx, s.stateKey)
	if errors.Is(err, agent.ErrStateNotFound) {
		level.Info(s.logger).Log("msg", "no saved state, starting fresh", "state", s.stateKey)
		return nil
	}
	return err
}

func (s *session) saveConfig(path string) error {
	if err := s.config.Save(path); err != nil {
		return fmt.Errorf("saving config to %s: %w", path, err)
	}
	return nil
}

// shutdownSignals stop the run after the current tick, Ctrl+Z included
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGTSTP}

// signalContext is cancelled on an interrupt or a terminate signal. The returned
// function releases the signal handler.
func signalContext(logger log.Logger) (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			level.Info(logger).Log("msg", "interrupt signal received, shutting down gracefully")
		case <-doneCh:
		}
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		close(doneCh)
	}
}
