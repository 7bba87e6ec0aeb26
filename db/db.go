// Package db provides the ledger store: durable persistence for the user
// ledger and the mention queue, backed either by flat files or by a SQL
// database (Postgres via pgx, or embedded SQLite).
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/al/model"
)

// Kind names one of the two independent record sets.
type Kind string

const (
	KindUsers    Kind = "users"
	KindMentions Kind = "mentions"
)

// Store loads and saves the two record sets.
//
// Loads are best-effort: a missing or unreadable record set yields an empty
// map and a logged warning, never an error. Saves replace the whole record
// set atomically and report failures to the caller. A Store assumes it is
// the only writer.
type Store interface {
	LoadUsers(ctx context.Context) model.Users
	SaveUsers(ctx context.Context, users model.Users) error
	LoadMentions(ctx context.Context) model.Mentions
	SaveMentions(ctx context.Context, mentions model.Mentions) error
	Close() error
}

// Open picks a backend: a SQL store when dsn is set, otherwise a file store
// rooted at dir using the given format (json, toml or yaml).
func Open(ctx context.Context, dsn, dir, format string) (Store, error) {
	if dsn != "" {
		database, driver, err := Connect(dsn)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLStore(ctx, database, driver)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		slog.Info("ledger store opened", slog.String("backend", driver), slog.String("component", "db"))
		return s, nil
	}
	s, err := NewFileStore(dir, format)
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	slog.Info("ledger store opened", slog.String("backend", "file"), slog.String("dir", dir), slog.String("format", s.codec.name()), slog.String("component", "db"))
	return s, nil
}

func loadFailed(kind Kind, backend string, err error) {
	slog.Warn("ledger load failed, starting empty", slog.String("kind", string(kind)), slog.String("backend", backend), slog.Any("err", err), slog.String("component", "db"))
}
