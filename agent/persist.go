package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log/level"
	"github.com/zeu5/dodge-rl/game"
)

var (
	ErrStateNotFound  = errors.New("agent state not found")
	ErrMalformedState = errors.New("malformed agent state")
)

// entry is encoded as [[distance, kind, row], [stay, jump]]
type entry struct {
	Key    []int
	Values []float64
}

func (e entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Key, e.Values})
}

func (e *entry) UnmarshalJSON(bs []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(bs, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("entry has %d parts, expected 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.Key); err != nil {
		return fmt.Errorf("entry key: %w", err)
	}
	if err := json.Unmarshal(parts[1], &e.Values); err != nil {
		return fmt.Errorf("entry values: %w", err)
	}
	if len(e.Key) != 3 {
		return fmt.Errorf("entry key has arity %d, expected 3", len(e.Key))
	}
	if len(e.Values) != game.NumActions {
		return fmt.Errorf("entry values have length %d, expected %d", len(e.Values), game.NumActions)
	}
	return nil
}

type document struct {
	QTable  []entry  `json:"q_table"`
	Epsilon *float64 `json:"epsilon"`
}

// Encode writes the table and epsilon as an indented JSON document
func (a *Agent) Encode(w io.Writer) error {
	entries := a.qTable.Entries()
	doc := document{
		QTable:  make([]entry, len(entries)),
		Epsilon: &a.epsilon,
	}
	for i, e := range entries {
		key := e.State.Tuple()
		values := e.Values
		doc.QTable[i] = entry{Key: key[:], Values: values[:]}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// decode parses a document into a fresh table without touching the agent
func decode(r io.Reader) (*QTable, float64, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	var doc document
	if err := json.Unmarshal(bs, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrMalformedState, err)
	}
	if doc.QTable == nil {
		return nil, 0, fmt.Errorf("%w: missing q_table", ErrMalformedState)
	}
	if doc.Epsilon == nil {
		return nil, 0, fmt.Errorf("%w: missing epsilon", ErrMalformedState)
	}
	table := NewQTable()
	for _, e := range doc.QTable {
		var values Values
		copy(values[:], e.Values)
		table.Set(game.StateFromTuple([3]int{e.Key[0], e.Key[1], e.Key[2]}), values)
	}
	return table, *doc.Epsilon, nil
}

// Decode replaces the table and epsilon with the document read from r.
// Nothing is changed when the document cannot be parsed.
func (a *Agent) Decode(r io.Reader) error {
	table, epsilon, err := decode(r)
	if err != nil {
		return err
	}
	a.qTable = table
	a.epsilon = epsilon
	return nil
}

// SaveTo stores the encoded agent under key
func (a *Agent) SaveTo(ctx context.Context, store Store, key string) error {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return err
	}
	if err := store.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("saving state to %s: %w", key, err)
	}
	level.Info(a.logger).Log("msg", "saved state", "key", key, "states", a.qTable.Len())
	return nil
}

// LoadFrom replaces the table and epsilon with the document stored under key
func (a *Agent) LoadFrom(ctx context.Context, store Store, key string) error {
	bs, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := a.Decode(bytes.NewReader(bs)); err != nil {
		return fmt.Errorf("loading state from %s: %w", key, err)
	}
	level.Info(a.logger).Log("msg", "loaded state", "key", key, "states", a.qTable.Len())
	return nil
}

// Save writes the agent to the file at path, replacing it atomically
func (a *Agent) Save(path string) error {
	return a.SaveTo(context.Background(), FileStore{}, path)
}

// Load reads the agent from the file at path. A missing file wraps ErrStateNotFound.
func (a *Agent) Load(path string) error {
	return a.LoadFrom(context.Background(), FileStore{}, path)
}
