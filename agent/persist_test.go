package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dodge-rl/game"
)

func seededAgent() *Agent {
	a := newTestAgent()
	a.Table().Set(game.State{Distance: 20, Kind: game.NoObstacle, Row: 0}, Values{1.5, 0.25})
	a.Table().Set(game.State{Distance: 0, Kind: game.Tree, Row: 0}, Values{-100, -37.125})
	a.Table().Set(game.State{Distance: 3, Kind: game.Bird, Row: 1}, Values{0.1, 1e-9})
	a.SetEpsilon(0.0425)
	return a
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_state.json")
	a := seededAgent()
	require.NoError(t, a.Save(path))

	b := newTestAgent()
	require.NoError(t, b.Load(path))
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.Epsilon(), b.Epsilon())
}

func TestLoadReplacesInsteadOfMerging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_state.json")
	require.NoError(t, seededAgent().Save(path))

	b := newTestAgent()
	extra := game.State{Distance: 7, Kind: game.Bird, Row: 0}
	b.Values(extra)
	require.NoError(t, b.Load(path))
	assert.False(t, b.Table().HasState(extra))
	assert.Equal(t, 3, b.Len())
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent_state.json")
	require.NoError(t, seededAgent().Save(path))

	empty := newTestAgent()
	require.NoError(t, empty.Save(path))

	b := seededAgent()
	require.NoError(t, b.Load(path))
	assert.Equal(t, 0, b.Len())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	a := seededAgent()
	err := a.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 0.0425, a.Epsilon())
}

func TestLoadMalformed(t *testing.T) {
	cases := map[string]string{
		"key arity":       `{"q_table": [[[1, 2], [0.0, 1.0]]], "epsilon": 0.1}`,
		"value arity":     `{"q_table": [[[1, 2, 0], [0.0, 1.0, 2.0]]], "epsilon": 0.1}`,
		"missing epsilon": `{"q_table": [[[1, 2, 0], [0.0, 1.0]]]}`,
		"missing table":   `{"epsilon": 0.1}`,
		"float key":       `{"q_table": [[[1.5, 2, 0], [0.0, 1.0]]], "epsilon": 0.1}`,
		"not json":        `q_table = 1`,
		"trailing bytes":  `{"q_table": [], "epsilon": 0.1} garbage`,
	}
	for name, doc := range cases {
		path := filepath.Join(t.TempDir(), "agent_state.json")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		a := seededAgent()
		before := a.Snapshot()
		err := a.Load(path)
		assert.ErrorIs(t, err, ErrMalformedState, name)
		assert.Equal(t, before, a.Snapshot(), name)
		assert.Equal(t, 0.0425, a.Epsilon(), name)
	}
}

func TestEncodedFormat(t *testing.T) {
	a := newTestAgent()
	a.Table().Set(game.State{Distance: 5, Kind: game.Tree, Row: 1}, Values{0.5, -2.25})
	a.SetEpsilon(0.1)

	var sb strings.Builder
	require.NoError(t, a.Encode(&sb))
	compact := strings.Join(strings.Fields(sb.String()), "")
	assert.Equal(t, `{"q_table":[[[5,1,1],[0.5,-2.25]]],"epsilon":0.1}`, compact)
}
