// Command al is a chat-room participant. It joins one channel on an IRC
// server, keeps a conversation log, tracks points and contact details for
// the people it meets, passes along messages for people who are away, and
// answers "AL: ..." commands from a handful of web services.
//
// Usage:
//
//	al <host> <port> <channel> <logfile>
//
// Everything else is configured through the environment (see package
// config). Shutdown is graceful on SIGINT/SIGTERM; failing to connect at all
// exits non-zero.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onnwee/al/config"
)

const version = "1.0.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")
	setupLogging()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setupLogging configures level and format. Defaults: level=info, format=text.
func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "al <host> <port> <channel> <logfile>",
		Short:        "AL joins a chat channel, keeps its log and answers questions",
		Version:      version,
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args)
			if err != nil {
				slog.Error("config load failed", slog.Any("err", err))
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, cfg); err != nil {
				slog.Error("al stopped", slog.Any("err", err))
				return err
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}
