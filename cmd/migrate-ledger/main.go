// Package main provides a CLI tool to copy the user ledger and mention queue
// between ledger stores, e.g. from the JSON files in data/ into Postgres.
//
// Usage:
//
//	migrate-ledger --from SRC --to DST [--from-format json] [--to-format json] [--dry-run]
//
// SRC and DST are either a ledger DSN (postgres://, sqlite://, file:) or a
// directory holding a file store in the given format (json, toml or yaml).
// Both record sets in DST are replaced.
//
// Example:
//
//	./migrate-ledger --from data --to "postgres://al:al@localhost:5432/al?sslmode=disable" --dry-run
//	./migrate-ledger --from data --to sqlite://data/ledger.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/onnwee/al/db"
)

func main() {
	from := flag.String("from", "", "Source ledger (directory or DSN)")
	to := flag.String("to", "", "Destination ledger (directory or DSN)")
	fromFormat := flag.String("from-format", "json", "File format when --from is a directory")
	toFormat := flag.String("to-format", "json", "File format when --to is a directory")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without writing")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *from == "" || *to == "" {
		slog.Error("both --from and --to are required")
		os.Exit(2)
	}
	if *from == *to && *fromFormat == *toFormat {
		slog.Error("source and destination are the same ledger")
		os.Exit(2)
	}

	ctx := context.Background()
	src, err := open(ctx, *from, *fromFormat)
	if err != nil {
		slog.Error("failed to open source", slog.Any("error", err))
		os.Exit(1)
	}
	defer src.Close()

	dst, err := open(ctx, *to, *toFormat)
	if err != nil {
		slog.Error("failed to open destination", slog.Any("error", err))
		os.Exit(1)
	}
	defer dst.Close()

	if _, err := migrateLedger(ctx, src, dst, *dryRun); err != nil {
		slog.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("migration completed successfully")
}

// open treats target as a DSN when it parses as one and as a file store
// directory otherwise.
func open(ctx context.Context, target, format string) (db.Store, error) {
	if _, _, err := db.ParseDSN(target); err == nil {
		return db.Open(ctx, target, "", "")
	}
	return db.Open(ctx, "", target, format)
}

type summary struct {
	Users    int
	Mentions int
}

// migrateLedger copies both record sets from src to dst. An entirely empty
// source is refused so a mistyped path cannot wipe the destination.
func migrateLedger(ctx context.Context, src, dst db.Store, dryRun bool) (summary, error) {
	users := src.LoadUsers(ctx)
	mentions := src.LoadMentions(ctx)

	var s summary
	s.Users = len(users)
	for _, q := range mentions {
		s.Mentions += len(q)
	}

	slog.Info("found ledger records to migrate",
		slog.Int("users", s.Users),
		slog.Int("mentions", s.Mentions),
		slog.Bool("dry_run", dryRun))

	if s.Users == 0 && s.Mentions == 0 {
		return s, fmt.Errorf("source ledger is empty; refusing to overwrite destination")
	}
	if dryRun {
		for handle, rec := range users {
			slog.Info("would migrate user (dry-run)", slog.String("handle", handle), slog.Int("points", rec.Points))
		}
		return s, nil
	}

	if err := dst.SaveUsers(ctx, users); err != nil {
		return s, fmt.Errorf("save users: %w", err)
	}
	if err := dst.SaveMentions(ctx, mentions); err != nil {
		return s, fmt.Errorf("save mentions: %w", err)
	}

	slog.Info("migration summary",
		slog.Int("users", s.Users),
		slog.Int("mentions", s.Mentions))
	return s, nil
}
