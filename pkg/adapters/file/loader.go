package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader over flow files in the editor export
// format (JSON, or the same document in YAML).
// Files are re-read when their modification time changes.
type Loader struct {
	logger *slog.Logger

	mu    sync.Mutex
	paths map[string]string // flow id -> file
	cache map[string]cached
}

type cached struct {
	modTime time.Time
	flow    *domain.Flow
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger reports decoding warnings (malformed nodes) to logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader serves the given files, keyed by flow id.
func NewLoader(paths map[string]string, opts ...LoaderOption) *Loader {
	l := &Loader{
		logger: logging.NewNop(),
		paths:  make(map[string]string, len(paths)),
		cache:  make(map[string]cached),
	}
	for id, p := range paths {
		l.paths[id] = p
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDirLoader serves every .json, .yaml and .yml file in dir. The flow id is
// the file name without extension.
func NewDirLoader(dir string, opts ...LoaderOption) (*Loader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow directory: %w", err)
	}
	paths := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !isFlowFile(e.Name()) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		paths[id] = filepath.Join(dir, e.Name())
	}
	return NewLoader(paths, opts...), nil
}

func isFlowFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Load returns the flow, re-reading its file if it changed.
func (l *Loader) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, ok := l.paths[flowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, flowID)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat flow %s: %w", flowID, err)
	}
	if c, ok := l.cache[flowID]; ok && c.modTime.Equal(info.ModTime()) {
		return c.flow, nil
	}

	flow, warnings, err := ReadFlow(path, flowID)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		l.logger.Warn("Malformed node in flow", "flow_id", flowID, "err", w)
	}
	l.cache[flowID] = cached{modTime: info.ModTime(), flow: flow}
	return flow, nil
}

// List returns all configured flow ids.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.paths))
	for id := range l.paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadFlow reads a flow file. The format follows the extension; anything other
// than .yaml/.yml is parsed as JSON.
func ReadFlow(path, flowID string) (*domain.Flow, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return ParseFlow(data, flowID, filepath.Ext(path))
}

// ParseFlow decodes a flow document. ext selects YAML (".yaml", ".yml") or JSON.
// Node-level problems are returned as warnings, they do not fail the parse.
func ParseFlow(data []byte, flowID, ext string) (*domain.Flow, []error, error) {
	var spec domain.FlowSpec
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, nil, fmt.Errorf("failed to parse flow %s: %w", flowID, err)
		}
	default:
		if err := xjson.Unmarshal(data, &spec); err != nil {
			return nil, nil, fmt.Errorf("failed to parse flow %s: %w", flowID, err)
		}
	}
	flow, warnings := spec.Build(flowID)
	return flow, warnings, nil
}
