package manager

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // SQLite driver "sqlite" (pure Go)
)

// SQLite driver names accepted by OpenJournal.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS compile_journal (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    group_name TEXT NOT NULL,
    project TEXT NOT NULL,
    rules INTEGER NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL,
    duration_us INTEGER NOT NULL,
    compiled_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compile_journal_compiled_at ON compile_journal(compiled_at);
CREATE INDEX IF NOT EXISTS idx_compile_journal_group ON compile_journal(project, group_name);
`

const (
	insertRecordSQL = `INSERT INTO compile_journal
    (id, source, group_name, project, rules, status, error, duration_us, compiled_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecentSQL = `SELECT id, source, group_name, project, rules, status, error, duration_us, compiled_at
    FROM compile_journal ORDER BY compiled_at DESC, id LIMIT ?`

	selectGroupSQL = `SELECT id, source, group_name, project, rules, status, error, duration_us, compiled_at
    FROM compile_journal WHERE project = ? AND group_name = ? ORDER BY compiled_at DESC, id LIMIT ?`

	pruneSQL = `DELETE FROM compile_journal WHERE compiled_at < ?`
)

// JournalConfig configures the compile journal.
type JournalConfig struct {
	// Driver is DriverSQLite (default) or DriverSQLite3.
	Driver string

	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Journal persists compile attempts to SQLite.
type Journal struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	logger     *slog.Logger
	closeOnce  sync.Once
}

// OpenJournal opens (creating if needed) the compile journal database.
func OpenJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverSQLite3 {
		return nil, fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// A single connection keeps writes serialized and ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	insertStmt, err := db.Prepare(insertRecordSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare journal insert: %w", err)
	}

	logger := slog.Default().With("component", "rules.journal")
	logger.Info("Compile journal opened",
		"driver", cfg.Driver,
		"path", cfg.Path,
	)

	return &Journal{
		db:         db,
		insertStmt: insertStmt,
		logger:     logger,
	}, nil
}

// Record stores one compile attempt.
func (j *Journal) Record(ctx context.Context, rec CompileRecord) error {
	_, err := j.insertStmt.ExecContext(ctx,
		rec.ID,
		rec.Source,
		rec.Group,
		rec.Project,
		rec.Rules,
		rec.Status,
		rec.Error,
		rec.Duration.Microseconds(),
		rec.CompiledAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record compile %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the latest compile attempts, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]CompileRecord, error) {
	rows, err := j.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return scanRecords(rows)
}

// History returns the latest compile attempts of one rule group, newest first.
func (j *Journal) History(ctx context.Context, project, name string, limit int) ([]CompileRecord, error) {
	rows, err := j.db.QueryContext(ctx, selectGroupSQL, project, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return scanRecords(rows)
}

// Prune deletes attempts older than cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, pruneSQL, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	if n > 0 {
		j.logger.Debug("Compile journal pruned", "deleted", n)
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database.
func (j *Journal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		j.insertStmt.Close()
		err = j.db.Close()
	})
	return err
}

func scanRecords(rows *sql.Rows) ([]CompileRecord, error) {
	defer rows.Close()

	var records []CompileRecord
	for rows.Next() {
		var (
			rec        CompileRecord
			durationUS int64
			compiledAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Source,
			&rec.Group,
			&rec.Project,
			&rec.Rules,
			&rec.Status,
			&rec.Error,
			&durationUS,
			&compiledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		rec.CompiledAt = time.Unix(0, compiledAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal rows: %w", err)
	}
	return records, nil
}
