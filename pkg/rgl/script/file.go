package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fsnotify/fsnotify"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// FileExtension is the extension of file-backed scripts.
const FileExtension = ".expr"

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

type cacheKey struct {
	identifier string
	capability handler.Capability
}

// FileFactory loads expr-lang scripts from a directory. Compiled scripts are
// cached per identifier and capability; Watch drops cache entries when the
// backing file changes.
type FileFactory struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	cache  map[cacheKey]any
	hits   int64
	misses int64
}

// NewFileFactory creates a factory reading scripts from dir.
func NewFileFactory(dir string, logger *slog.Logger) (*FileFactory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access script directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("script path %q is not a directory", abs)
	}

	return &FileFactory{
		dir:    abs,
		logger: logger.With("component", "script.files"),
		cache:  make(map[cacheKey]any),
	}, nil
}

// Dir returns the absolute script directory.
func (f *FileFactory) Dir() string {
	return f.dir
}

// Path returns the file backing identifier. It fails for identifiers that
// would escape the script directory.
func (f *FileFactory) Path(identifier string) (string, error) {
	if !identifierPattern.MatchString(identifier) || strings.Contains(identifier, "..") {
		return "", fmt.Errorf("invalid script identifier: %q", identifier)
	}
	path := filepath.Join(f.dir, identifier+FileExtension)
	if !strings.HasPrefix(path, f.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid script identifier: %q", identifier)
	}
	return path, nil
}

// Load implements Factory.
func (f *FileFactory) Load(identifier string, capability handler.Capability) (any, error) {
	key := cacheKey{identifier: identifier, capability: capability}

	f.mu.RLock()
	cached, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		f.mu.Lock()
		f.hits++
		f.mu.Unlock()
		return cached, nil
	}

	path, err := f.Path(identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(identifier)
		}
		return nil, fmt.Errorf("failed to read script %q: %w", identifier, err)
	}

	var script any
	switch capability {
	case handler.CapabilityCondition, handler.CapabilityAction:
		program, err := handler.CompileExpr(string(data), capability)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", identifier, err)
		}
		if capability == handler.CapabilityCondition {
			script = &fileCondition{identifier: identifier, program: program}
		} else {
			script = &fileAction{identifier: identifier, program: program}
		}
	default:
		return nil, &CapabilityError{Identifier: identifier, Capability: capability}
	}

	f.mu.Lock()
	f.cache[key] = script
	f.misses++
	f.mu.Unlock()

	f.logger.Debug("Script compiled",
		"identifier", identifier,
		"capability", capability,
		"path", path,
	)
	return script, nil
}

// Invalidate drops every cached compilation of identifier.
func (f *FileFactory) Invalidate(identifier string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.cache {
		if key.identifier == identifier {
			delete(f.cache, key)
		}
	}
}

// Purge drops the whole cache.
func (f *FileFactory) Purge() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[cacheKey]any)
}

// CacheStats returns the number of cached scripts, cache hits and compilations.
func (f *FileFactory) CacheStats() (size int, hits, misses int64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache), f.hits, f.misses
}

// Watch invalidates cache entries when script files change. It blocks until
// ctx is cancelled.
func (f *FileFactory) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("failed to watch script directory: %w", err)
	}

	f.logger.Info("Script watcher started", "path", f.dir)

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Script watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, FileExtension) {
				continue
			}
			identifier := strings.TrimSuffix(name, FileExtension)
			f.Invalidate(identifier)
			f.logger.Info("Script changed, cache invalidated",
				"identifier", identifier,
				"op", event.Op.String(),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			f.logger.Error("Script watcher error", "error", err)
		}
	}
}

// fileCondition runs a boolean expr-lang program.
type fileCondition struct {
	identifier string
	program    *vm.Program
}

func (c *fileCondition) Evaluate(_ context.Context, in handler.ConditionInput) (bool, error) {
	source, _ := handler.LookupField(in.Facts, in.Source)
	matched, err := handler.RunExprCondition(c.program, handler.ExprEnv{Facts: in.Facts, Source: source})
	if err != nil {
		return false, fmt.Errorf("script %q: %w", c.identifier, err)
	}
	return matched, nil
}

// fileAction runs an expr-lang program and returns its result.
type fileAction struct {
	identifier string
	program    *vm.Program
}

func (a *fileAction) Execute(_ context.Context, in handler.ActionInput) (any, error) {
	out, err := expr.Run(a.program, handler.ExprEnv{Facts: in.Facts, Params: in.Params})
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", a.identifier, err)
	}
	return out, nil
}
