package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps serialized agent documents by key
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns an error wrapping ErrStateNotFound for unknown keys
	Get(ctx context.Context, key string) ([]byte, error)
}

// FileStore uses the key as a file path
type FileStore struct{}

var _ Store = FileStore{}

// stateFileMode of the files written by FileStore
const stateFileMode = 0644

// Put writes to a temporary file next to the target and renames it over the target
func (FileStore) Put(_ context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(stateFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (FileStore) Get(_ context.Context, path string) ([]byte, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: state file %s not found", ErrStateNotFound, path)
		}
		return nil, err
	}
	return bs, nil
}

// RedisStore keeps documents as plain string values
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = &RedisStore{}

func NewRedisStore(addr, prefix string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
		}),
		prefix: prefix,
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.key(key), data, 0).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: redis key %s not found", ErrStateNotFound, r.key(key))
		}
		return nil, err
	}
	return bs, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
