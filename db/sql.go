package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
	_ "modernc.org/sqlite"             // pure-go sqlite driver registered as 'sqlite'

	"github.com/onnwee/al/model"
)

const (
	driverPostgres = "pgx"
	driverSQLite   = "sqlite"
)

// ParseDSN maps a ledger DSN to a database/sql driver name and data source.
//
//	postgres://... or postgresql://...  -> pgx
//	sqlite:///path/to/ledger.db         -> sqlite
//	file:ledger.db?mode=rwc             -> sqlite
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite dsn has no path")
		}
		return driverSQLite, path, nil
	case strings.HasPrefix(dsn, "file:"):
		return driverSQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported ledger dsn %q", dsn)
	}
}

// Connect opens a database for the given ledger DSN and returns the driver
// name used.
func Connect(dsn string) (*sql.DB, string, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	if driver == driverSQLite && !strings.HasPrefix(source, "file:") {
		if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
			return nil, "", fmt.Errorf("create sqlite dir: %w", err)
		}
		source += "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	database, err := sql.Open(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == driverSQLite {
		// one connection keeps transactions and WAL on a single handle
		database.SetMaxOpenConns(1)
	}
	return database, driver, nil
}

// Migrate applies the idempotent ledger schema.
func Migrate(ctx context.Context, database *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_users (
			handle TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_mentions (
			target TEXT NOT NULL,
			seq INTEGER NOT NULL,
			from_handle TEXT NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (target, seq)
		)`,
	}
	for i, s := range stmts {
		if _, err := database.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ledger migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// SQLStore keeps both record sets in SQL tables. Each save rewrites the
// record set inside one transaction.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore migrates the schema and returns a store over database.
func NewSQLStore(ctx context.Context, database *sql.DB, driver string) (*SQLStore, error) {
	if err := Migrate(ctx, database); err != nil {
		return nil, err
	}
	return &SQLStore{db: database, driver: driver}, nil
}

// DB exposes the underlying handle for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// rebind rewrites '?' placeholders to '$n' for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != driverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) LoadUsers(ctx context.Context) model.Users {
	users, err := s.loadUsers(ctx)
	if err != nil {
		loadFailed(KindUsers, s.driver, err)
		return model.Users{}
	}
	return users
}

func (s *SQLStore) loadUsers(ctx context.Context) (model.Users, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT handle, email, phone, points FROM ledger_users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := model.Users{}
	for rows.Next() {
		var handle string
		var rec model.UserRecord
		if err := rows.Scan(&handle, &rec.Email, &rec.Phone, &rec.Points); err != nil {
			return nil, err
		}
		users[handle] = rec
	}
	return users, rows.Err()
}

func (s *SQLStore) SaveUsers(ctx context.Context, users model.Users) error {
	handles := make([]string, 0, len(users))
	for h := range users {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return s.replace(ctx, `DELETE FROM ledger_users`, func(tx *sql.Tx) error {
		insert := s.rebind(`INSERT INTO ledger_users (handle, email, phone, points) VALUES (?, ?, ?, ?)`)
		for _, h := range handles {
			rec := users[h]
			if _, err := tx.ExecContext(ctx, insert, h, rec.Email, rec.Phone, rec.Points); err != nil {
				return fmt.Errorf("insert user %q: %w", h, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) LoadMentions(ctx context.Context) model.Mentions {
	mentions, err := s.loadMentions(ctx)
	if err != nil {
		loadFailed(KindMentions, s.driver, err)
		return model.Mentions{}
	}
	return mentions
}

func (s *SQLStore) loadMentions(ctx context.Context) (model.Mentions, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target, from_handle, body FROM ledger_mentions ORDER BY target, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mentions := model.Mentions{}
	for rows.Next() {
		var target string
		var m model.PendingMention
		if err := rows.Scan(&target, &m.From, &m.Body); err != nil {
			return nil, err
		}
		mentions[target] = append(mentions[target], m)
	}
	return mentions, rows.Err()
}

func (s *SQLStore) SaveMentions(ctx context.Context, mentions model.Mentions) error {
	targets := make([]string, 0, len(mentions))
	for t, q := range mentions {
		if len(q) > 0 {
			targets = append(targets, t)
		}
	}
	sort.Strings(targets)
	return s.replace(ctx, `DELETE FROM ledger_mentions`, func(tx *sql.Tx) error {
		insert := s.rebind(`INSERT INTO ledger_mentions (target, seq, from_handle, body) VALUES (?, ?, ?, ?)`)
		for _, t := range targets {
			for seq, m := range mentions[t] {
				if _, err := tx.ExecContext(ctx, insert, t, seq, m.From, m.Body); err != nil {
					return fmt.Errorf("insert mention for %q: %w", t, err)
				}
			}
		}
		return nil
	})
}

func (s *SQLStore) replace(ctx context.Context, clear string, fill func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clear); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear: %w", err)
	}
	if err := fill(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
