// Package postgres provides a StateStore on PostgreSQL, one row per
// conversation in the chat_states table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_states (
	flow_id         TEXT        NOT NULL,
	conversation_id TEXT        NOT NULL,
	pending_node_id TEXT,
	variables       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (flow_id, conversation_id)
)`

// Store implements ports.StateStore using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, verifies the connection and creates the
// table if needed.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Save upserts the conversation row.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error {
	vars, err := xjson.Marshal(state.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	var pending *string
	if state.PendingNodeID != "" {
		pending = &state.PendingNodeID
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_states (flow_id, conversation_id, pending_node_id, variables, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (flow_id, conversation_id)
		DO UPDATE SET pending_node_id = EXCLUDED.pending_node_id,
		              variables = EXCLUDED.variables,
		              updated_at = now()`,
		key.FlowID, key.ConversationID, pending, vars,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}

// Load retrieves the conversation row.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	var (
		pending *string
		vars    []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT pending_node_id, variables
		FROM chat_states
		WHERE flow_id = $1 AND conversation_id = $2`,
		key.FlowID, key.ConversationID,
	).Scan(&pending, &vars)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat state: %w", err)
	}

	state := domain.NewState()
	if pending != nil {
		state.PendingNodeID = *pending
	}
	if len(vars) > 0 {
		if err := xjson.Unmarshal(vars, &state.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}
	return state, nil
}

// Delete removes the conversation row.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM chat_states WHERE flow_id = $1 AND conversation_id = $2`,
		key.FlowID, key.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete chat state: %w", err)
	}
	return nil
}

// List returns the conversations stored for a flow.
func (s *Store) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT conversation_id FROM chat_states WHERE flow_id = $1 ORDER BY conversation_id`,
		flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat states: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat states: %w", err)
	}

	keys := make([]domain.ConversationKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, domain.ConversationKey{FlowID: flowID, ConversationID: id})
	}
	return keys, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
