package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dodge-rl/agent"
	"github.com/zeu5/dodge-rl/config"
	"github.com/zeu5/dodge-rl/game"
)

func testSession(t *testing.T) (*session, *bytes.Buffer) {
	cfg := config.Defaults()
	cfg.MaxSteps = 5
	cfg.RenderDelay = 0
	out := &bytes.Buffer{}
	a := agent.NewAgent(cfg, 2)
	return &session{
		config:      cfg,
		logger:      log.NewNopLogger(),
		environment: game.NewEnvironment(cfg, 1),
		agent:       a,
		store:       agent.FileStore{},
		stateKey:    filepath.Join(t.TempDir(), "agent_state.json"),
		out:         out,
	}, out
}

func TestParseEpisodes(t *testing.T) {
	n, err := parseEpisodes("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, in := range []string{"0", "-3", "ten", ""} {
		_, err := parseEpisodes(in)
		assert.ErrorIs(t, err, errInvalidInput, in)
	}
}

func TestMenuTrainSaveLoad(t *testing.T) {
	s, out := testSession(t)
	input := strings.Join([]string{
		"1", "3", // train three episodes
		"3", "", // save to the default state
		"4", "", // load it back
		"6",
	}, "\n") + "\n"
	newMenu(s, strings.NewReader(input), out).Run(context.Background())

	text := out.String()
	assert.Contains(t, text, "=== Q-Learning Game Menu ===")
	assert.Contains(t, text, "Agent state saved to "+s.stateKey)
	assert.Contains(t, text, "Agent state loaded from "+s.stateKey)
	assert.Contains(t, text, "Exiting program.")
	assert.Contains(t, text, "Program terminated.")
	assert.FileExists(t, s.stateKey)
	assert.Greater(t, s.agent.Len(), 0)
}

func TestMenuReportsErrorsAndContinues(t *testing.T) {
	s, out := testSession(t)
	missing := filepath.Join(t.TempDir(), "missing.json")
	input := strings.Join([]string{
		"9",
		"1", "zero",
		"2", "-1",
		"4", missing,
		"6",
	}, "\n") + "\n"
	newMenu(s, strings.NewReader(input), out).Run(context.Background())

	text := out.String()
	assert.Contains(t, text, "Invalid option. Please select 1-6.")
	assert.Equal(t, 2, strings.Count(text, "Invalid input:"))
	assert.Contains(t, text, "File error:")
	assert.Contains(t, text, "Exiting program.")
}

func TestMenuEndOfInput(t *testing.T) {
	s, out := testSession(t)
	newMenu(s, strings.NewReader(""), out).Run(context.Background())
	assert.Contains(t, out.String(), "Program terminated.")
	assert.NotContains(t, out.String(), "Exiting program.")
}

func TestMenuCancelledContext(t *testing.T) {
	s, out := testSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	newMenu(s, strings.NewReader("6\n"), out).Run(ctx)
	assert.NotContains(t, out.String(), "=== Q-Learning Game Menu ===")
	assert.Contains(t, out.String(), "Program terminated.")
}

func TestMenuTestRenders(t *testing.T) {
	s, out := testSession(t)
	newMenu(s, strings.NewReader("2\n\n6\n"), out).Run(context.Background())
	assert.Contains(t, out.String(), "Predicted Best Action: STAY")
}

func TestMenuSaveConfig(t *testing.T) {
	s, out := testSession(t)
	dest := filepath.Join(t.TempDir(), "game_config.yaml")
	newMenu(s, strings.NewReader("5\n"+dest+"\n6\n"), out).Run(context.Background())
	assert.Contains(t, out.String(), "Configuration saved to "+dest)

	cfg, err := config.Load(dest)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxSteps)
}

func TestSessionTrainPlots(t *testing.T) {
	s, _ := testSession(t)
	dir := t.TempDir()
	summary, err := s.train(context.Background(), 4, runOptions{plotPath: dir})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Episodes)
	assert.FileExists(t, filepath.Join(dir, "returns.png"))
	assert.FileExists(t, filepath.Join(dir, "returns.html"))
}

func TestLoadIfPresentStartsFresh(t *testing.T) {
	s, _ := testSession(t)
	require.NoError(t, s.loadIfPresent(context.Background()))
	assert.Equal(t, 0, s.agent.Len())
}

func TestRootTrainThenTest(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "agent_state.json")
	common := []string{
		"--config", filepath.Join(dir, "missing.json"),
		"--log", "",
		"--log-level", "error",
		"--state", state,
		"--seed", "7",
		"--max-steps", "5",
	}

	out := &bytes.Buffer{}
	root := GetRootCommand()
	root.SetOut(out)
	root.SetArgs(append([]string{"train", "--episodes", "3", "--record", filepath.Join(dir, "traces.jsonl")}, common...))
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Trained 3 episodes")
	assert.FileExists(t, state)
	assert.FileExists(t, filepath.Join(dir, "traces.jsonl"))

	out.Reset()
	root = GetRootCommand()
	root.SetOut(out)
	root.SetArgs(append([]string{"test", "--episodes", "2", "--render=false"}, common...))
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Tested 2 episodes")
}

func TestRootTestRequiresState(t *testing.T) {
	dir := t.TempDir()
	root := GetRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"test",
		"--config", filepath.Join(dir, "missing.json"),
		"--log", "",
		"--log-level", "error",
		"--state", filepath.Join(dir, "none.json"),
		"--render=false",
	})
	err := root.Execute()
	assert.ErrorIs(t, err, agent.ErrStateNotFound)
}

func TestRootConfigWritesYAML(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.yaml")
	root := GetRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "--config", filepath.Join(dir, "missing.json"), "--max-steps", "42", "--out", dest})
	require.NoError(t, root.Execute())

	cfg, err := config.Load(dest)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxSteps)
	assert.Equal(t, config.Defaults().Width, cfg.Width)
}

func TestRootRedisState(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	common := []string{
		"--config", filepath.Join(dir, "missing.json"),
		"--log", "",
		"--log-level", "error",
		"--redis", mr.Addr(),
		"--state", "agent_state.json",
		"--max-steps", "5",
	}

	root := GetRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs(append([]string{"train", "--episodes", "2"}, common...))
	require.NoError(t, root.Execute())
	assert.True(t, mr.Exists(redisPrefix+"agent_state.json"))
	assert.NoFileExists(t, "agent_state.json")

	out := &bytes.Buffer{}
	root = GetRootCommand()
	root.SetOut(out)
	root.SetArgs(append([]string{"test", "--render=false"}, common...))
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Tested 1 episodes")
}

func TestExecuteStopsProfilingOnError(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")
	root := GetRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"test",
		"--config", filepath.Join(dir, "missing.json"),
		"--log", "",
		"--log-level", "error",
		"--state", filepath.Join(dir, "none.json"),
		"--cpuprofile", cpu,
		"--memprofile", mem,
	})
	err := Execute(root)
	assert.ErrorIs(t, err, agent.ErrStateNotFound)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)

	// a cpu profile still running would make this fail
	require.NoError(t, pprof.StartCPUProfile(io.Discard))
	pprof.StopCPUProfile()
}

func TestSignalContextStopSignal(t *testing.T) {
	ctx, done := signalContext(log.NewNopLogger())
	defer done()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTSTP))
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled by SIGTSTP")
	}
}

func TestSignalContextDone(t *testing.T) {
	ctx, done := signalContext(log.NewNopLogger())
	done()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not released")
	}
}
