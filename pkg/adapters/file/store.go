package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
)

// Store implements ports.StateStore using the local filesystem.
// Each conversation is a JSON file at <base>/<flow>/<conversation>.json.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".botflow/sessions".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".botflow", "sessions")
	}
	return &Store{BasePath: basePath}
}

// dir is the directory of a flow. PathEscape keeps "." and "..", which
// would resolve outside BasePath, so those ids are rejected.
func (s *Store) dir(flowID string) (string, error) {
	switch flowID {
	case "":
		return "", fmt.Errorf("flow id is empty")
	case ".", "..":
		return "", fmt.Errorf("flow id %q is not a valid directory name", flowID)
	}
	return filepath.Join(s.BasePath, url.PathEscape(flowID)), nil
}

func (s *Store) path(key domain.ConversationKey) (string, error) {
	if key.FlowID == "" || key.ConversationID == "" {
		return "", fmt.Errorf("conversation key %q is incomplete", key)
	}
	switch key.ConversationID {
	case ".", "..":
		return "", fmt.Errorf("conversation id %q is not a valid file name", key.ConversationID)
	}
	dir, err := s.dir(key.FlowID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, url.PathEscape(key.ConversationID)+".json"), nil
}

// Save persists the state to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := xjson.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}

// Load retrieves the state from its JSON file.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	state := domain.NewState()
	if err := xjson.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return state, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the conversations stored for a flow.
func (s *Store) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	dir, err := s.dir(flowID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ConversationKey{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := []domain.ConversationKey{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		keys = append(keys, domain.ConversationKey{FlowID: flowID, ConversationID: id})
	}
	return keys, nil
}
