package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/rulec/pkg/rgl/parser"
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	// URL serves the rule document (YAML or JSON).
	URL string

	// Schedule is a cron expression or descriptor, e.g. "*/5 * * * *" or
	// "@every 30s". Default: "@every 1m"
	Schedule string

	// Timeout bounds a single fetch. Default: 10 seconds
	Timeout time.Duration

	// Headers are added to every request, e.g. an Authorization header.
	Headers map[string]string

	// MaxSize limits the response body. Default: parser.DefaultMaxDocumentSize
	MaxSize int64
}

// UpdateFunc is called after the snapshot changed.
type UpdateFunc func(ctx context.Context, snapshot *Snapshot) error

// Observer is told the outcome of every poll.
type Observer interface {
	RecordRemotePoll(changed bool, err error, duration time.Duration)
}

// Poller fetches the rule document on a schedule and refreshes a Snapshot.
type Poller struct {
	config   PollerConfig
	client   *http.Client
	snapshot *Snapshot
	onUpdate UpdateFunc
	cron     *cron.Cron
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	etag    string
	pending bool // onUpdate has not yet succeeded for the current snapshot
}

// NewPoller creates a poller. onUpdate may be nil.
func NewPoller(cfg PollerConfig, snapshot *Snapshot, onUpdate UpdateFunc) (*Poller, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote URL cannot be empty")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = parser.DefaultMaxDocumentSize
	}

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", cfg.Schedule, err)
	}

	return &Poller{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		snapshot: snapshot,
		onUpdate: onUpdate,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "rules.remote"),
	}, nil
}

// WithObserver reports poll outcomes to o.
func (p *Poller) WithObserver(o Observer) *Poller {
	p.observer = o
	return p
}

// Poll fetches the document once. changed reports whether the snapshot was
// replaced. onUpdate runs when it was, and again on every later poll until it
// succeeds; the ETag is only kept once onUpdate has succeeded so the
// document is refetched meanwhile.
func (p *Poller) Poll(ctx context.Context) (changed bool, err error) {
	start := time.Now()
	changed, err = p.poll(ctx)
	if p.observer != nil {
		p.observer.RecordRemotePoll(changed, err, time.Since(start))
	}
	return changed, err
}

func (p *Poller) poll(ctx context.Context) (changed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}
	p.mu.Lock()
	if p.etag != "" {
		req.Header.Set("If-None-Match", p.etag)
	}
	p.mu.Unlock()

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s: %w", p.config.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		p.logger.Debug("Remote rule document not modified", "url", p.config.URL)
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("failed to fetch %s: unexpected status %s", p.config.URL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.config.MaxSize+1))
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", p.config.URL, err)
	}
	if int64(len(body)) > p.config.MaxSize {
		return false, fmt.Errorf("remote document exceeds maximum %d bytes", p.config.MaxSize)
	}

	changed, err = p.snapshot.Update(p.config.URL, string(body))
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	if changed {
		p.pending = p.onUpdate != nil
	}
	retry := p.pending
	if !retry {
		p.etag = resp.Header.Get("ETag")
	}
	p.mu.Unlock()

	if changed {
		p.logger.Info("Remote rule document updated",
			"url", p.config.URL,
			"checksum", p.snapshot.Checksum()[:12],
			"bytes", len(body),
		)
	}
	if !retry {
		return changed, nil
	}
	if !changed {
		p.logger.Info("Retrying remote rule document update",
			"url", p.config.URL,
			"checksum", p.snapshot.Checksum()[:12],
		)
	}

	if err := p.onUpdate(ctx, p.snapshot); err != nil {
		return changed, err
	}

	p.mu.Lock()
	p.pending = false
	p.etag = resp.Header.Get("ETag")
	p.mu.Unlock()
	return changed, nil
}

// Start polls once and then on the configured schedule until ctx is
// cancelled or Stop is called. A failed first poll is logged, not returned.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller already running")
	}

	if _, err := p.cron.AddFunc(p.config.Schedule, func() { p.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}

	go p.run(ctx)

	p.cron.Start()
	p.running = true

	p.logger.Info("Remote poller started",
		"url", p.config.URL,
		"schedule", p.config.Schedule,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

func (p *Poller) run(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil {
		p.logger.Error("Remote poll failed",
			"url", p.config.URL,
			"error", err,
		)
	}
}

// Stop stops the schedule and waits for a running poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	<-p.cron.Stop().Done()
	p.logger.Info("Remote poller stopped")
}

// IsRunning returns true if the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// NextRun returns the next scheduled poll time.
func (p *Poller) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
