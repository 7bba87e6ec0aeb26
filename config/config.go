// Package config loads the command line and environment into a typed Config.
// Defaults let the bot run locally with only the four positional arguments;
// content commands whose credentials are missing answer with an apology.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultNick is the handle the bot registers with.
const DefaultNick = "AL"

type Config struct {
	// Connection
	Host       string
	Port       int
	Channel    string
	LogFile    string
	Nick       string
	OAuthToken string
	ForceTLS   bool

	MaxConnectAttempts uint

	// Ledger
	LedgerDir    string
	LedgerFormat string
	LedgerDSN    string
	// LedgerKey seals emails and phone numbers at rest when set.
	LedgerKey string

	// Commands
	AdapterTimeout    time.Duration
	CafeMenuURL       string
	WeatherBaseURL    string
	WeatherAPIKey     string
	WeatherDefaultZip string
	SlangBaseURL      string
	MovieBaseURL      string
	MovieAPIKey       string
	LastFMBaseURL     string
	LastFMAPIKey      string
	LastFMUser        string
	WolframBaseURL    string
	WolframAppID      string

	// HTTP health endpoint; empty disables it.
	HTTPAddr string
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load builds a Config from the positional arguments host, port, channel
// and logfile plus the environment.
func Load(args []string) (*Config, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("expected 4 arguments (host port channel logfile), got %d", len(args))
	}
	cfg := &Config{Host: args[0], Channel: args[2], LogFile: args[3]}

	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", args[1])
	}
	cfg.Port = port
	if cfg.Host == "" {
		return nil, fmt.Errorf("host must not be empty")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("channel must not be empty")
	}
	if !strings.HasPrefix(cfg.Channel, "#") {
		cfg.Channel = "#" + cfg.Channel
	}

	cfg.Nick = env("BOT_NICK", DefaultNick)
	cfg.OAuthToken = os.Getenv("CHAT_OAUTH_TOKEN")
	if v := os.Getenv("CHAT_TLS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CHAT_TLS: %w", err)
		}
		cfg.ForceTLS = b
	}

	cfg.MaxConnectAttempts = 3
	if v := os.Getenv("MAX_CONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid MAX_CONNECT_ATTEMPTS %q", v)
		}
		cfg.MaxConnectAttempts = uint(n)
	}

	// Ledger
	cfg.LedgerDir = env("LEDGER_DIR", "data")
	cfg.LedgerFormat = strings.ToLower(env("LEDGER_FORMAT", "json"))
	cfg.LedgerDSN = os.Getenv("LEDGER_DSN")
	cfg.LedgerKey = os.Getenv("LEDGER_ENCRYPTION_KEY")

	// Commands
	cfg.AdapterTimeout = 10 * time.Second
	if v := os.Getenv("ADAPTER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid ADAPTER_TIMEOUT %q", v)
		}
		cfg.AdapterTimeout = d
	}
	cfg.CafeMenuURL = os.Getenv("CAFE_MENU_URL")
	cfg.WeatherBaseURL = env("WEATHER_BASE_URL", "https://api.openweathermap.org")
	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.WeatherDefaultZip = env("WEATHER_DEFAULT_ZIP", "94103")
	cfg.SlangBaseURL = env("SLANG_BASE_URL", "https://api.urbandictionary.com")
	cfg.MovieBaseURL = env("MOVIE_BASE_URL", "https://api.rottentomatoes.com")
	cfg.MovieAPIKey = os.Getenv("MOVIE_API_KEY")
	cfg.LastFMBaseURL = env("LASTFM_BASE_URL", "https://ws.audioscrobbler.com")
	cfg.LastFMAPIKey = os.Getenv("LASTFM_API_KEY")
	cfg.LastFMUser = os.Getenv("LASTFM_USER")
	cfg.WolframBaseURL = env("WOLFRAM_BASE_URL", "https://api.wolframalpha.com")
	cfg.WolframAppID = os.Getenv("WOLFRAM_APP_ID")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")

	return cfg, nil
}
