package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"dayrun/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run-history store.
//
// Driver values:
//   - "sqlite": SQLite database file
//   - "" or "none": disabled
//
// Keep bounds retained rows; 0 means DefaultKeep.
type Config struct {
	Driver      string
	Path        string
	Keep        int
	BusyTimeout time.Duration // 0 means default
}

const DefaultKeep = 365

// Run is one recorded firing.
type Run struct {
	Started  time.Time
	Duration time.Duration
	OK       bool
	Error    string
}

// Store is the persistence API used by the daemon.
type Store interface {
	Record(ctx context.Context, r Run) error
	Recent(ctx context.Context, n int) ([]Run, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	started  TEXT    NOT NULL,
	took_ms  INTEGER NOT NULL,
	ok       INTEGER NOT NULL,
	err      TEXT
);
CREATE INDEX IF NOT EXISTS runs_started ON runs(started);
`

type sqliteStore struct {
	db   *sql.DB
	log  logx.Logger
	keep int

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("history.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	keep := cfg.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}
	st := &sqliteStore{db: db, log: log, keep: keep, pruneEvery: 16}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Record(ctx context.Context, r Run) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.Started.IsZero() {
		r.Started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(started, took_ms, ok, err) VALUES(?,?,?,?)`,
		r.Started.Format(time.RFC3339Nano), r.Duration.Milliseconds(), boolInt(r.OK), nullStr(r.Error),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		if perr := s.prune(pctx); perr != nil {
			s.log.Debug("history prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT started, took_ms, ok, err FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			started string
			tookMS  int64
			ok      int
			errStr  sql.NullString
		)
		if err := rows.Scan(&started, &tookMS, &ok, &errStr); err != nil {
			return nil, err
		}
		r := Run{
			Duration: time.Duration(tookMS) * time.Millisecond,
			OK:       ok != 0,
			Error:    errStr.String,
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// prune trims the table to the configured keep bound.
func (s *sqliteStore) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, s.keep)
	return err
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
