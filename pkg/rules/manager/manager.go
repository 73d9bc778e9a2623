package manager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/rulec/pkg/rgl/ast"
	"mercator-hq/rulec/pkg/rgl/document"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/parser"
	"mercator-hq/rulec/pkg/rgl/resolver"
	"mercator-hq/rulec/pkg/rgl/script"
	"mercator-hq/rulec/pkg/rgl/validator"
	"mercator-hq/rulec/pkg/rules/remote"
)

// DocumentExtensions are the file extensions loaded from rule directories.
var DocumentExtensions = []string{".yaml", ".yml", ".json"}

// Manager sequences validate, resolve and register for rule groups coming
// from objects, text, files or the remote snapshot.
type Manager struct {
	parser    atomic.Pointer[parser.Parser]
	resolver  *resolver.Resolver
	validator *validator.Validator
	registrar Registrar
	journal   *Journal
	recorder  Recorder
	logger    *slog.Logger

	// mu serializes compiles so groups from one document register in order.
	mu     sync.Mutex
	status Status
}

// NewManager creates a manager registering into registrar. scripts may be
// nil when no script kinds are used; a nil classes locator falls back to
// locator.Default.
func NewManager(registrar Registrar, scripts script.Factory, classes resolver.ClassLocator, logger *slog.Logger) (*Manager, error) {
	if registrar == nil {
		return nil, fmt.Errorf("registrar cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := resolver.New(scripts, classes).WithLogger(logger)

	m := &Manager{
		resolver:  r,
		validator: validator.NewValidator(r),
		registrar: registrar,
		logger:    logger.With("component", "rules.manager"),
	}
	m.parser.Store(parser.NewParser())
	return m, nil
}

// WithParser replaces the document parser. It is safe to call while
// documents are loading; loads already in progress keep the previous parser.
func (m *Manager) WithParser(p *parser.Parser) *Manager {
	if p != nil {
		m.parser.Store(p)
	}
	return m
}

// WithJournal records every compile attempt in j.
func (m *Manager) WithJournal(j *Journal) *Manager {
	m.journal = j
	return m
}

// WithRecorder reports compile metrics to r.
func (m *Manager) WithRecorder(r Recorder) *Manager {
	m.recorder = r
	return m
}

// InitializeFromObject validates, resolves and registers a caller-built
// rule group.
func (m *Manager) InitializeFromObject(group *ast.RuleGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.initialize(SourceObject, group)
}

// InitializeFromText compiles every rule group of a YAML or JSON document.
// Text whose trimmed form starts with '{' and ends with '}' is JSON.
//
// Groups are compiled independently and in order. The first failing group
// stops the call; groups registered before it stay registered and are
// returned with the error. A document without the groups key path
// registers nothing and returns no error.
func (m *Manager) InitializeFromText(text string) ([]*ast.RuleGroup, error) {
	return m.initializeText(SourceText, "", text)
}

// InitializeFromFile compiles every rule group of a rule document on disk.
func (m *Manager) InitializeFromFile(path string) ([]*ast.RuleGroup, error) {
	text, err := m.parser.Load().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return m.initializeText(path, path, text)
}

// InitializeFromRemote compiles every rule group of the remote snapshot,
// with the same per-group independence as InitializeFromText.
func (m *Manager) InitializeFromRemote(snapshot *remote.Snapshot) ([]*ast.RuleGroup, error) {
	if snapshot == nil {
		return nil, rglErrors.New("remote snapshot is not configured")
	}
	doc := snapshot.Document()
	if doc == nil {
		return nil, rglErrors.New("remote snapshot is empty")
	}
	return m.initializeDocument(snapshot.Source(), doc)
}

// LoadPaths compiles every rule document found under paths. Directories are
// walked for DocumentExtensions; hidden entries are skipped. A failing
// document does not stop the others; all failures are returned as an
// ErrorList.
func (m *Manager) LoadPaths(paths []string) ([]*ast.RuleGroup, error) {
	start := time.Now()

	files, err := DocumentFiles(paths)
	if err != nil {
		return nil, err
	}

	var (
		registered []*ast.RuleGroup
		errs       ErrorList
	)
	for _, file := range files {
		groups, err := m.InitializeFromFile(file)
		registered = append(registered, groups...)
		if err != nil {
			errs.Add(&DocumentError{File: file, Err: err})
		}
	}

	m.mu.Lock()
	m.status.LastLoadTime = time.Now()
	m.status.LastLoadError = errs.ToError()
	m.mu.Unlock()

	m.logger.Info("Rule documents loaded",
		"files", len(files),
		"registered", len(registered),
		"errors", len(errs.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return registered, errs.ToError()
}

// Watch reloads paths whenever a rule document under them changes. It
// blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, paths []string, debounce time.Duration) error {
	cfg := DefaultFileWatcherConfig()
	cfg.Paths = paths
	if debounce > 0 {
		cfg.DebounceInterval = debounce
	}

	fw, err := NewFileWatcher(cfg, m.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	return fw.Watch(ctx, func() error {
		_, err := m.LoadPaths(paths)
		return err
	})
}

// Status returns the outcome of the last LoadPaths call and compile counts.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

func (m *Manager) initializeText(source, name, text string) ([]*ast.RuleGroup, error) {
	doc, err := m.parser.Load().ParseDocument(name, text)
	if err != nil {
		return nil, err
	}
	return m.initializeDocument(source, doc)
}

func (m *Manager) initializeDocument(source string, doc *document.Node) ([]*ast.RuleGroup, error) {
	nodes, found, err := parser.GroupNodes(doc)
	if err != nil {
		return nil, err
	}
	if !found {
		m.logger.Info("No rule groups in document",
			"source", source,
			"path", parser.GroupsPath,
		)
		return nil, nil
	}

	p := m.parser.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	registered := make([]*ast.RuleGroup, 0, len(nodes))
	for _, node := range nodes {
		group := parser.Build(node)
		if err := p.CheckGroup(node); err != nil {
			m.record(source, group, err, 0)
			return registered, err
		}
		if err := m.initialize(source, group); err != nil {
			return registered, err
		}
		registered = append(registered, group)
	}
	return registered, nil
}

// initialize must be called with m.mu held.
func (m *Manager) initialize(source string, group *ast.RuleGroup) error {
	start := time.Now()

	err := m.validator.Validate(group)
	if err == nil {
		err = m.resolver.Resolve(group)
	}
	if err == nil {
		err = m.registrar.RegisterRuleGroup(group)
	}

	m.record(source, group, err, time.Since(start))
	return err
}

func (m *Manager) record(source string, group *ast.RuleGroup, err error, duration time.Duration) {
	rec := CompileRecord{
		ID:         uuid.NewString(),
		Source:     source,
		Status:     StatusRegistered,
		Duration:   duration,
		CompiledAt: time.Now(),
	}
	if group != nil {
		rec.Group = group.Name
		rec.Project = group.Project
		rec.Rules = len(group.Rules)
	}

	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		m.status.Failed++
		m.logger.Error("Rule group rejected",
			"compile_id", rec.ID,
			"source", source,
			"group", rec.Group,
			"error", err,
		)
	} else {
		m.status.Registered++
		m.logger.Info("Rule group registered",
			"compile_id", rec.ID,
			"source", source,
			"group", rec.Group,
			"project", rec.Project,
			"rules", rec.Rules,
			"duration_ms", duration.Milliseconds(),
		)
	}

	if m.recorder != nil {
		m.recorder.RecordCompile(source, rec.Status, duration)
		if counter, ok := m.registrar.(interface{ Count() int }); ok {
			m.recorder.SetRegisteredGroups(counter.Count())
		}
	}

	if m.journal != nil {
		if jerr := m.journal.Record(context.Background(), rec); jerr != nil {
			m.logger.Warn("Failed to journal compile", "compile_id", rec.ID, "error", jerr)
		}
	}
}

// DocumentFiles expands paths into a sorted, de-duplicated list of rule
// documents. Directories are walked for DocumentExtensions; hidden entries
// are skipped.
func DocumentFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, &LoadError{Path: root, Op: "stat", Err: err}
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && hasExtension(path, DocumentExtensions) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Path: root, Op: "walk", Err: err}
		}
	}

	sort.Strings(files)
	return files, nil
}
