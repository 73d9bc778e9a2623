package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const rulesDocument = `
ruleengine:
  groups:
    - name: orders
      project: shop
      rules:
        - name: big-order
          when:
            - operation: always
`

func TestSnapshot_Update(t *testing.T) {
	s := NewSnapshot()

	if s.Document() != nil {
		t.Fatal("Document() of a new snapshot is not nil")
	}
	if _, ok := s.Lookup("ruleengine.groups"); ok {
		t.Error("Lookup() on an empty snapshot returned ok")
	}

	changed, err := s.Update("remote", rulesDocument)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !changed {
		t.Error("first Update() changed = false, want true")
	}

	groups, ok := s.Lookup("ruleengine.groups")
	if !ok || !groups.IsSequence() || len(groups.Items()) != 1 {
		t.Errorf("Lookup(ruleengine.groups) = %v, %v; want a one-item list", groups, ok)
	}
	if s.Source() != "remote" {
		t.Errorf("Source() = %q, want %q", s.Source(), "remote")
	}
	if s.Checksum() == "" || s.UpdatedAt().IsZero() {
		t.Error("Checksum() or UpdatedAt() not set")
	}

	changed, err = s.Update("remote", rulesDocument)
	if err != nil || changed {
		t.Errorf("identical Update() = %v, %v; want false, nil", changed, err)
	}
}

func TestSnapshot_UpdateKeepsPreviousOnError(t *testing.T) {
	s := NewSnapshot()
	if _, err := s.Update("remote", rulesDocument); err != nil {
		t.Fatal(err)
	}
	before := s.Checksum()

	if _, err := s.Update("remote", `{"ruleengine": [`); err == nil {
		t.Fatal("Update() with broken JSON error = nil, want error")
	}
	if s.Checksum() != before {
		t.Error("failed Update() replaced the snapshot")
	}
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	s := NewSnapshot()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Update("remote", rulesDocument)
		}()
		go func() {
			defer wg.Done()
			if doc := s.Document(); doc != nil {
				_, _ = doc.Lookup("ruleengine.groups")
			}
		}()
	}
	wg.Wait()
}

func TestNewPoller_Config(t *testing.T) {
	tests := []struct {
		name     string
		cfg      PollerConfig
		snapshot *Snapshot
		wantErr  bool
	}{
		{name: "defaults", cfg: PollerConfig{URL: "http://localhost"}, snapshot: NewSnapshot()},
		{name: "every descriptor", cfg: PollerConfig{URL: "http://localhost", Schedule: "@every 30s"}, snapshot: NewSnapshot()},
		{name: "missing url", cfg: PollerConfig{}, snapshot: NewSnapshot(), wantErr: true},
		{name: "nil snapshot", cfg: PollerConfig{URL: "http://localhost"}, wantErr: true},
		{name: "bad schedule", cfg: PollerConfig{URL: "http://localhost", Schedule: "every minute"}, snapshot: NewSnapshot(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoller(tt.cfg, tt.snapshot, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPoller() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPoller_Poll(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(rulesDocument))
	}))
	defer server.Close()

	snapshot := NewSnapshot()
	var updates atomic.Int32
	poller, err := NewPoller(PollerConfig{
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	}, snapshot, func(_ context.Context, s *Snapshot) error {
		updates.Add(1)
		if s.Document() == nil {
			t.Error("onUpdate saw an empty snapshot")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}

	ctx := context.Background()

	changed, err := poller.Poll(ctx)
	if err != nil || !changed {
		t.Fatalf("first Poll() = %v, %v; want true, nil", changed, err)
	}

	changed, err = poller.Poll(ctx)
	if err != nil || changed {
		t.Fatalf("second Poll() = %v, %v; want false, nil (not modified)", changed, err)
	}

	if updates.Load() != 1 {
		t.Errorf("onUpdate ran %d times, want 1", updates.Load())
	}
	if requests.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", requests.Load())
	}
	if snapshot.Source() != server.URL {
		t.Errorf("Source() = %q, want %q", snapshot.Source(), server.URL)
	}
}

func TestPoller_RetriesFailedUpdate(t *testing.T) {
	var conditional atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(rulesDocument))
	}))
	defer server.Close()

	var updates atomic.Int32
	poller, err := NewPoller(PollerConfig{URL: server.URL}, NewSnapshot(), func(context.Context, *Snapshot) error {
		if updates.Add(1) == 1 {
			return errors.New("registry unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}

	ctx := context.Background()
	tests := []struct {
		name        string
		wantChanged bool
		wantErr     bool
		wantUpdates int32
	}{
		{name: "first update fails", wantChanged: true, wantErr: true, wantUpdates: 1},
		{name: "unchanged document retries update", wantChanged: false, wantUpdates: 2},
		{name: "settled document is not modified", wantChanged: false, wantUpdates: 2},
	}

	for _, tt := range tests {
		changed, err := poller.Poll(ctx)
		if changed != tt.wantChanged || (err != nil) != tt.wantErr {
			t.Fatalf("%s: Poll() = %v, %v; want changed %v, wantErr %v", tt.name, changed, err, tt.wantChanged, tt.wantErr)
		}
		if updates.Load() != tt.wantUpdates {
			t.Errorf("%s: onUpdate ran %d times, want %d", tt.name, updates.Load(), tt.wantUpdates)
		}
	}

	if conditional.Load() != 1 {
		t.Errorf("server saw %d conditional requests, want 1", conditional.Load())
	}
}

func TestPoller_PollErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		maxSize int64
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusInternalServerError)
			},
		},
		{
			name: "unparseable document",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"ruleengine": `))
			},
		},
		{
			name: "document too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(rulesDocument))
			},
			maxSize: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			snapshot := NewSnapshot()
			poller, err := NewPoller(PollerConfig{URL: server.URL, MaxSize: tt.maxSize}, snapshot, nil)
			if err != nil {
				t.Fatal(err)
			}

			if _, err := poller.Poll(context.Background()); err == nil {
				t.Error("Poll() error = nil, want error")
			}
			if snapshot.Document() != nil {
				t.Error("failed Poll() installed a document")
			}
		})
	}
}

func TestPoller_StartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rulesDocument))
	}))
	defer server.Close()

	snapshot := NewSnapshot()
	poller, err := NewPoller(PollerConfig{URL: server.URL, Schedule: "@every 1h"}, snapshot, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := poller.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want error")
	}
	if !poller.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if next := poller.NextRun(); next == nil {
		t.Error("NextRun() = nil, want a time")
	}

	deadline := time.Now().Add(5 * time.Second)
	for snapshot.Document() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if snapshot.Document() == nil {
		t.Error("initial poll did not fill the snapshot")
	}

	poller.Stop()
	if poller.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

type pollRecord struct {
	changed bool
	failed  bool
}

type fakeObserver struct {
	mu    sync.Mutex
	polls []pollRecord
}

func (o *fakeObserver) RecordRemotePoll(changed bool, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polls = append(o.polls, pollRecord{changed: changed, failed: err != nil})
}

func TestPoller_Observer(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(rulesDocument))
	}))
	defer server.Close()

	observer := &fakeObserver{}
	poller, err := NewPoller(PollerConfig{URL: server.URL}, NewSnapshot(), nil)
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}
	poller.WithObserver(observer)

	ctx := context.Background()
	poller.Poll(ctx)
	poller.Poll(ctx)
	fail.Store(true)
	poller.Poll(ctx)

	want := []pollRecord{
		{changed: true},
		{changed: false},
		{failed: true},
	}
	if len(observer.polls) != len(want) {
		t.Fatalf("observer saw %d polls, want %d", len(observer.polls), len(want))
	}
	for i := range want {
		if observer.polls[i] != want[i] {
			t.Errorf("poll[%d] = %+v, want %+v", i, observer.polls[i], want[i])
		}
	}
}
