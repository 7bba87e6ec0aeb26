package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/al/chat"
	"github.com/onnwee/al/config"
	"github.com/onnwee/al/content"
	"github.com/onnwee/al/crypto"
	"github.com/onnwee/al/db"
	"github.com/onnwee/al/ledger"
	"github.com/onnwee/al/mention"
	"github.com/onnwee/al/router"
	"github.com/onnwee/al/server"
	"github.com/onnwee/al/session"
	"github.com/onnwee/al/telemetry"
)

// run wires the bot together and blocks until ctx is cancelled or the
// connection cannot be established.
func run(ctx context.Context, cfg *config.Config) error {
	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	tracing, err := telemetry.TracingConfigFromEnv()
	if err != nil {
		return err
	}
	shutdown, err := telemetry.InitTracing(tracing, "al", version, telemetry.ChannelAttr(cfg.Channel))
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}
	defer shutdown()

	store, err := db.Open(ctx, cfg.LedgerDSN, cfg.LedgerDir, cfg.LedgerFormat)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	if cfg.LedgerKey != "" {
		sealer, err := crypto.NewAESSealer(cfg.LedgerKey)
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("LEDGER_ENCRYPTION_KEY: %w", err)
		}
		store = db.NewSealedStore(store, sealer)
		slog.Info("ledger contact details sealed at rest", slog.String("component", "db"))
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close ledger store", slog.Any("err", err))
		}
	}()

	books := router.Books{
		Users:    ledger.New(ctx, store),
		Mentions: mention.New(ctx, store),
	}
	r := router.New(router.Config{
		MovieKey:        cfg.MovieAPIKey,
		KnowledgeKey:    cfg.WolframAppID,
		DefaultListener: cfg.LastFMUser,
		AdapterTimeout:  cfg.AdapterTimeout,
	}, buildAdapters(cfg))

	factory := session.NewFactory(session.Config{
		Nick:               cfg.Nick,
		Channel:            cfg.Channel,
		LogPath:            cfg.LogFile,
		MaxConnectAttempts: cfg.MaxConnectAttempts,
	}, chat.Dialer(chat.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.OAuthToken,
		ForceTLS: cfg.ForceTLS,
	}), r, books)

	if cfg.HTTPAddr != "" {
		go func() {
			if err := server.Start(ctx, cfg.HTTPAddr, factory); err != nil {
				slog.Error("http server stopped", slog.Any("err", err))
			}
		}()
	}

	slog.Info("starting session",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("channel", cfg.Channel),
		slog.String("nick", cfg.Nick))
	return factory.Run(ctx)
}

// buildAdapters returns the content adapters that have what they need to
// work. The rest stay nil and their commands apologise.
func buildAdapters(cfg *config.Config) router.Adapters {
	a := router.Adapters{
		Slang:  &content.SlangClient{BaseURL: cfg.SlangBaseURL},
		Movies: &content.MovieClient{BaseURL: cfg.MovieBaseURL},
		Oracle: &content.KnowledgeClient{BaseURL: cfg.WolframBaseURL},
	}
	if cfg.CafeMenuURL != "" {
		a.Menu = &content.MenuScraper{URL: cfg.CafeMenuURL}
	}
	if cfg.WeatherAPIKey != "" {
		a.Weather = &content.WeatherClient{BaseURL: cfg.WeatherBaseURL, APIKey: cfg.WeatherAPIKey, DefaultZip: cfg.WeatherDefaultZip}
	}
	if cfg.LastFMAPIKey != "" {
		a.Music = &content.NowPlayingClient{BaseURL: cfg.LastFMBaseURL, APIKey: cfg.LastFMAPIKey}
	}
	return a
}
