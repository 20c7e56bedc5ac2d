// Package sqlite persists final account snapshots to a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LerianStudio/payments-engine/payments/backoff"
	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/engine"
	"github.com/LerianStudio/payments-engine/payments/snapshot/sqlite/migrations"
	"github.com/LerianStudio/payments-engine/payments/transaction"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	migrationTable = "schema_migrations"
	exportAttempts = 4
	exportBackoff  = 50 * time.Millisecond
)

// ErrRunExists is returned when a snapshot for the run id was already saved.
var ErrRunExists = errors.New("snapshot run already exists")

// Store writes account snapshots.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Run describes one saved snapshot.
type Run struct {
	ID        string
	Accounts  int
	CreatedAt time.Time
}

// Open opens the database at path and applies the embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

// Save writes every account under runID in a single transaction.
func (s *Store) Save(ctx context.Context, runID string, accounts []engine.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_runs (run_id, accounts, created_at) VALUES (?, ?, ?)`,
		runID, len(accounts), s.now().UTC().UnixMilli(),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrRunExists, runID)
		}

		return fmt.Errorf("insert snapshot run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO accounts_snapshot (run_id, client, available_units, held_units, total_units, locked)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare account insert: %w", err)
	}
	defer stmt.Close()

	for _, acct := range accounts {
		if _, err := stmt.ExecContext(ctx,
			runID,
			int64(acct.Client),
			acct.Available.Units(),
			acct.Held.Units(),
			acct.Total.Units(),
			acct.Locked,
		); err != nil {
			return fmt.Errorf("insert account %d: %w", acct.Client, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

// Accounts loads the snapshot saved under runID, ordered by client id.
func (s *Store) Accounts(ctx context.Context, runID string) ([]engine.Account, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT client, available_units, held_units, total_units, locked
		   FROM accounts_snapshot
		  WHERE run_id = ?
		  ORDER BY client`, runID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []engine.Account

	for rows.Next() {
		var (
			client                 int64
			available, held, total int64
			locked                 bool
		)

		if err := rows.Scan(&client, &available, &held, &total, &locked); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		acct := engine.Account{Client: transaction.ClientID(client), Locked: locked}

		if acct.Available, err = currency.FromUnits(available); err != nil {
			return nil, fmt.Errorf("account %d available: %w", client, err)
		}

		if acct.Held, err = currency.FromUnits(held); err != nil {
			return nil, fmt.Errorf("account %d held: %w", client, err)
		}

		if acct.Total, err = currency.FromUnits(total); err != nil {
			return nil, fmt.Errorf("account %d total: %w", client, err)
		}

		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Runs lists saved snapshots, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT run_id, accounts, created_at FROM snapshot_runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run     Run
			created int64
		)

		if err := rows.Scan(&run.ID, &run.Accounts, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.CreatedAt = time.UnixMilli(created).UTC()
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Export opens path, saves the snapshot and closes the database. A busy
// database is retried with backoff.
func Export(ctx context.Context, path, runID string, accounts []engine.Account) error {
	return backoff.Retry(ctx, exportAttempts, exportBackoff, isBusy, func() error {
		store, err := Open(path)
		if err != nil {
			return err
		}

		if err := store.Save(ctx, runID, accounts); err != nil {
			_ = store.Close()
			return err
		}

		return store.Close()
	})
}

func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`, migrationTable)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)

	for _, name := range files {
		var count int
		if err := sqlDB.QueryRow(
			fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE name = ?`, migrationTable), name,
		).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}

		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}

		if _, err := tx.Exec(
			fmt.Sprintf(`INSERT INTO %s (name, applied_at) VALUES (?, ?)`, migrationTable),
			name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// isBusy reports whether err comes from another connection holding a lock.
func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}
