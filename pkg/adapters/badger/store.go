// Package badger provides an embedded, durable StateStore on BadgerDB for
// single-node deployments that should survive restarts without a server.
package badger

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/dgraph-io/badger/v3"
)

// sep separates flow and conversation ids inside a key. The flow id is
// query-escaped, so sep never appears in it.
const sep = "\x00"

// Store implements ports.StateStore on a badger database.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires conversations after ttl of inactivity. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Open opens (or creates) a database at path. An empty path opens an in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return New(db, opts...), nil
}

// New wraps an already opened database. Closing it remains the caller's job
// unless Close is called on the store.
func New(db *badger.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func prefix(flowID string) []byte {
	return []byte("session/" + url.QueryEscape(flowID) + sep)
}

func keyOf(key domain.ConversationKey) []byte {
	return append(prefix(key.FlowID), key.ConversationID...)
}

// Save persists the state.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error {
	data, err := xjson.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(keyOf(key), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to save to badger: %w", err)
	}
	return nil
}

// Load retrieves the state.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	state := domain.NewState()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyOf(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return xjson.Unmarshal(val, state)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load from badger: %w", err)
	}
	return state, nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyOf(key))
	})
}

// List returns the conversations stored for a flow.
func (s *Store) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	keys := []domain.ConversationKey{}
	p := prefix(flowID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			id := string(it.Item().Key()[len(p):])
			keys = append(keys, domain.ConversationKey{FlowID: flowID, ConversationID: id})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
