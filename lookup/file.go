package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/table"
	"github.com/fsnotify/fsnotify"
)

// Opener opens the content of a lookup file
type Opener func(ctx context.Context) (io.ReadCloser, error)

// FileResolver resolves keys from a CSV or JSON file, loaded on first use
// and held in memory. JSON files hold an array of objects.
type FileResolver struct {
	path        string
	keyColumn   string
	valueColumn string
	open        Opener
	local       bool

	mu     sync.Mutex
	loaded *MapResolver
}

// NewFileResolver creates a file resolver. The file is not read until the
// first Resolve or Load.
func NewFileResolver(path, keyColumn, valueColumn string) (*FileResolver, error) {
	r, err := NewOpenerFileResolver(path, func(context.Context) (io.ReadCloser, error) {
		return os.Open(path)
	}, keyColumn, valueColumn)
	if err != nil {
		return nil, err
	}
	r.local = true
	return r, nil
}

// NewOpenerFileResolver creates a resolver over a file read through open,
// such as an object in remote storage. The format follows the extension
// of path. Such resolvers cannot be watched.
func NewOpenerFileResolver(path string, open Opener, keyColumn, valueColumn string) (*FileResolver, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
	default:
		return nil, &ecode.ConfigurationError{Field: "path", Message: fmt.Sprintf("unsupported file format: %s", path)}
	}
	if keyColumn == "" {
		return nil, &ecode.ConfigurationError{Field: "key_column", Message: ecode.FieldIsRequired("key_column")}
	}
	if valueColumn == "" {
		return nil, &ecode.ConfigurationError{Field: "value_column", Message: ecode.FieldIsRequired("value_column")}
	}
	if open == nil {
		return nil, &ecode.ConfigurationError{Field: "path", Message: fmt.Sprintf("no opener for %s", path)}
	}
	return &FileResolver{path: path, keyColumn: keyColumn, valueColumn: valueColumn, open: open}, nil
}

// Path returns the backing file path
func (r *FileResolver) Path() string { return r.path }

// Load reads the file, replacing any previously loaded mapping
func (r *FileResolver) Load() error {
	return r.LoadContext(context.Background())
}

// LoadContext is Load with a context for remote reads
func (r *FileResolver) LoadContext(ctx context.Context) error {
	mapping, err := r.read(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded == nil {
		r.loaded = &MapResolver{}
	}
	r.loaded.replace(mapping)
	return nil
}

func (r *FileResolver) ensureLoaded(ctx context.Context) (*MapResolver, error) {
	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()
	if loaded != nil {
		return loaded, nil
	}

	if err := r.LoadContext(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded, nil
}

// Resolve looks up each key in the loaded file
func (r *FileResolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	m, err := r.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return m.Resolve(ctx, keys)
}

func (r *FileResolver) read(ctx context.Context) (map[string]any, error) {
	f, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup file: %w", err)
	}
	defer f.Close()

	var rows []map[string]any
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".csv":
		t, err := table.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		keys, ok := t.Column(r.keyColumn)
		if !ok {
			return nil, &ecode.ConfigurationError{Field: "key_column", Message: fmt.Sprintf("column %q not found in %s", r.keyColumn, r.path)}
		}
		values, ok := t.Column(r.valueColumn)
		if !ok {
			return nil, &ecode.ConfigurationError{Field: "value_column", Message: fmt.Sprintf("column %q not found in %s", r.valueColumn, r.path)}
		}
		rows = make([]map[string]any, len(keys))
		for i := range keys {
			rows[i] = map[string]any{r.keyColumn: keys[i], r.valueColumn: values[i]}
		}
	case ".json":
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode lookup file %s: %w", r.path, err)
		}
	}

	mapping := make(map[string]any, len(rows))
	for _, row := range rows {
		k, ok := row[r.keyColumn]
		if !ok || table.IsMissing(k) {
			continue
		}
		id := KeyID(k)
		// first occurrence wins
		if _, seen := mapping[id]; !seen {
			mapping[id] = row[r.valueColumn]
		}
	}
	return mapping, nil
}

// Watch reloads the file whenever it is written or replaced, until ctx is
// done. Reload failures are logged and the previous mapping is kept.
func (r *FileResolver) Watch(ctx context.Context) error {
	if !r.local {
		return &ecode.ConfigurationError{Field: "watch", Message: fmt.Sprintf("%s is not a local file", r.path)}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory so editors that replace the file are seen
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", r.path, err)
	}

	target := filepath.Clean(r.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := r.LoadContext(ctx); err != nil {
					logger.Warnf(ctx, "failed to reload lookup file %s: %v", r.path, err)
					continue
				}
				logger.Debugf(ctx, "reloaded lookup file %s", r.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf(ctx, "lookup file watcher error: %v", err)
			}
		}
	}()
	return nil
}
