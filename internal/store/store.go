// Package store defines the durable key-value slot the todo list is
// persisted into, plus the backends that implement it.
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/sqlitestore"
)

// Slot is a durable key-value slot. Put replaces the whole value.
type Slot interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been written.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the backend named by backend, rooted at dir.
func Open(backend, dir string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return jsonstore.New(dir), nil
	case BackendSQLite:
		return sqlitestore.Open(sqlitestore.DefaultPath(dir))
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want json, sqlite or memory)", backend)
}

// Memory is an in-process Slot. Nothing survives the process.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailPut, when set, is returned from every Put.
	FailPut error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }
