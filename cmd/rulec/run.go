package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rulec/pkg/cli"
	"mercator-hq/rulec/pkg/config"
	"mercator-hq/rulec/pkg/rgl/parser"
	"mercator-hq/rulec/pkg/rules/manager"
	"mercator-hq/rulec/pkg/rules/remote"
	"mercator-hq/rulec/pkg/telemetry/health"
	"mercator-hq/rulec/pkg/telemetry/logging"
	"mercator-hq/rulec/pkg/telemetry/metrics"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile rule documents and keep them current",
	Long: `Compile the configured rule documents and keep the registry current.

run loads the configuration, compiles every document under rules.paths,
then optionally:
  - reloads documents when they change (rules.watch)
  - invalidates cached scripts when script files change (scripts.watch)
  - polls a remote rule document on a cron schedule (remote.enabled)
  - journals every compile attempt to SQLite (journal.enabled)
  - serves Prometheus metrics, health probes and a status endpoint
    (telemetry.metrics.enabled)

SIGHUP reloads the configuration file, applies the new rules settings
(paths, watch, debounce, size limit, schema check) and the log level, and
recompiles all documents. Remote, journal, scripts and metrics settings take
effect on restart.

Examples:
  rulec run --config rulec.yaml
  RULEC_RULES_PATHS=./rules RULEC_RULES_WATCH=true rulec run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.GetConfig()

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return err
	}
	if verbose {
		_ = logger.SetLevel("debug")
	}
	logger.SetDefault()

	ctx := cli.SetupSignalHandler()

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	config.OnReload(func(previous, current *config.Config) {
		if err := logger.SetLevel(current.Telemetry.Logging.Level); err != nil {
			slog.Warn("Ignoring invalid log level on reload", "error", err)
		}
	})

	svc.loadAll(cfg.Rules.Paths)

	reload := cli.NotifyReload(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return nil
		case err := <-svc.errs:
			return err
		case <-reload:
			if err := config.ReloadConfig(cfgFile); err != nil {
				slog.Error("Configuration reload failed", "error", err)
				continue
			}
			slog.Info("Configuration reloaded")
			current := config.GetConfig()
			svc.applyRules(ctx, current.Rules)
			svc.loadAll(current.Rules.Paths)
		}
	}
}

// service holds the collaborators started by run.
type service struct {
	registry  *manager.GroupRegistry
	manager   *manager.Manager
	collector *metrics.Collector
	journal   *manager.Journal
	checker   *health.Checker
	server    *http.Server
	errs      chan error

	rulesWatch *rulesWatcher
}

// rulesWatcher is the running rules watcher, replaced on reload.
type rulesWatcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newService(ctx context.Context, cfg *config.Config) (*service, error) {
	scripts, files, err := newScriptFactory(cfg.Scripts.Dir)
	if err != nil {
		return nil, err
	}

	svc := &service{
		registry: manager.NewGroupRegistry(),
		checker:  health.New(5 * time.Second),
		errs:     make(chan error, 1),
	}

	svc.manager, err = manager.NewManager(svc.registry, scripts, nil, slog.Default())
	if err != nil {
		return nil, err
	}
	svc.manager.WithParser(newParser(cfg.Rules))

	svc.checker.RegisterCheck("rules", health.RulesLoaded(func() (time.Time, error) {
		status := svc.manager.Status()
		return status.LastLoadTime, status.LastLoadError
	}))

	if cfg.Journal.Enabled {
		svc.journal, err = manager.OpenJournal(manager.JournalConfig{
			Driver: cfg.Journal.Driver,
			Path:   cfg.Journal.Path,
		})
		if err != nil {
			return nil, err
		}
		svc.manager.WithJournal(svc.journal)
		svc.checker.RegisterCheck("journal", health.Reachable(svc.journal))

		if cfg.Journal.RetentionDays > 0 {
			scheduler, err := manager.NewRetentionScheduler(svc.journal, manager.RetentionConfig{
				RetentionDays: cfg.Journal.RetentionDays,
				Schedule:      cfg.Journal.PruneSchedule,
			})
			if err != nil {
				svc.close()
				return nil, err
			}
			if err := scheduler.Start(ctx); err != nil {
				svc.close()
				return nil, err
			}
		}
	}

	if cfg.Telemetry.Metrics.Enabled {
		svc.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		svc.manager.WithRecorder(svc.collector)
		if files != nil {
			if err := svc.collector.RegisterScriptCache(files.CacheStats); err != nil {
				svc.close()
				return nil, err
			}
		}
		svc.serve(cfg.Telemetry.Metrics)
	}

	if files != nil && cfg.Scripts.Watch {
		go svc.watch(ctx, "scripts", files.Watch)
	}

	svc.applyRules(ctx, cfg.Rules)

	if cfg.Remote.Enabled {
		poller, err := remote.NewPoller(remote.PollerConfig{
			URL:      cfg.Remote.URL,
			Schedule: cfg.Remote.Schedule,
			Timeout:  cfg.Remote.Timeout,
			Headers:  cfg.Remote.Headers,
			MaxSize:  cfg.Rules.MaxDocumentSize,
		}, remote.Default, func(_ context.Context, snapshot *remote.Snapshot) error {
			_, err := svc.manager.InitializeFromRemote(snapshot)
			return err
		})
		if err != nil {
			svc.close()
			return nil, err
		}
		if svc.collector != nil {
			poller.WithObserver(svc.collector)
		}
		svc.checker.RegisterCheck("remote", func(context.Context) error {
			if remote.Default.Document() == nil {
				return fmt.Errorf("no remote rule document fetched from %s", cfg.Remote.URL)
			}
			return nil
		})
		if err := poller.Start(ctx); err != nil {
			svc.close()
			return nil, err
		}
	}

	return svc, nil
}

func newParser(cfg config.RulesConfig) *parser.Parser {
	return parser.NewParser().
		WithMaxSize(cfg.MaxDocumentSize).
		WithSchemaValidation(!cfg.SkipSchemaValidation)
}

// applyRules installs the parser settings of cfg and restarts the rules
// watcher with its paths and debounce interval. It must not be called
// concurrently.
func (s *service) applyRules(ctx context.Context, cfg config.RulesConfig) {
	s.manager.WithParser(newParser(cfg))
	s.stopRulesWatch()

	if !cfg.Watch {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &rulesWatcher{cancel: cancel, done: make(chan struct{})}
	paths, debounce := cfg.Paths, cfg.DebounceInterval
	go func() {
		defer close(w.done)
		s.watch(watchCtx, "rules", func(ctx context.Context) error {
			return s.manager.Watch(ctx, paths, debounce)
		})
	}()
	s.rulesWatch = w
}

func (s *service) stopRulesWatch() {
	if s.rulesWatch == nil {
		return
	}
	s.rulesWatch.cancel()
	<-s.rulesWatch.done
	s.rulesWatch = nil
}

func (s *service) loadAll(paths []string) {
	if len(paths) == 0 {
		slog.Warn("No rule paths configured")
		return
	}
	if _, err := s.manager.LoadPaths(paths); err != nil {
		slog.Error("Some rule documents failed to compile", "error", err)
	}
}

// watch runs fn and reports an unexpected failure to the run loop.
func (s *service) watch(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		select {
		case s.errs <- fmt.Errorf("%s watcher failed: %w", name, err):
		default:
		}
	}
}

func (s *service) serve(cfg config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, s.collector.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	health.Register(mux, s.checker, Version, GitCommit, BuildDate)

	s.server = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics server listening", "address", cfg.ListenAddress, "path", cfg.Path)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errs <- fmt.Errorf("metrics server failed: %w", err):
			default:
			}
		}
	}()
}

// statusResponse is served at /status.
type statusResponse struct {
	Registry manager.RegistryStats `json:"registry"`
	Groups   []string              `json:"groups"`
	Compiles compileStatus         `json:"compiles"`
	Remote   *remoteStatus         `json:"remote,omitempty"`
}

type compileStatus struct {
	Registered    int       `json:"registered"`
	Failed        int       `json:"failed"`
	LastLoadTime  time.Time `json:"last_load_time"`
	LastLoadError string    `json:"last_load_error,omitempty"`
}

type remoteStatus struct {
	Source    string    `json:"source"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *service) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.manager.Status()
	resp := statusResponse{
		Registry: s.registry.Stats(),
		Groups:   s.registry.Keys(),
		Compiles: compileStatus{
			Registered:   status.Registered,
			Failed:       status.Failed,
			LastLoadTime: status.LastLoadTime,
		},
	}
	if status.LastLoadError != nil {
		resp.Compiles.LastLoadError = status.LastLoadError.Error()
	}
	if remote.Default.Document() != nil {
		resp.Remote = &remoteStatus{
			Source:    remote.Default.Source(),
			Checksum:  remote.Default.Checksum(),
			UpdatedAt: remote.Default.UpdatedAt(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("Failed to write status response", "error", err)
	}
}

func (s *service) close() {
	s.stopRulesWatch()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			slog.Error("Failed to close journal", "error", err)
		}
	}
}
