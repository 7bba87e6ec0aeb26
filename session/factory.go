package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/onnwee/al/router"
	"github.com/onnwee/al/telemetry"
)

// ErrConnectFailed is returned by Run when the connection could not be
// established within the configured number of attempts.
var ErrConnectFailed = errors.New("could not connect to chat server")

const defaultConnectAttempts = 3

// Config describes the connection a Factory maintains.
type Config struct {
	Nick    string
	Channel string
	// LogPath is the conversation log; empty disables it.
	LogPath            string
	MaxConnectAttempts uint
}

// DialFunc creates a transport that will register as nick once Run is called.
type DialFunc func(ctx context.Context, nick string) (Transport, error)

// Factory owns the bot's presence: it builds a fresh Session for every
// connection and redials until its context is cancelled.
type Factory struct {
	cfg    Config
	dial   DialFunc
	router Dispatcher
	books  router.Books

	phase atomic.Int32
	mu    sync.Mutex
	nick  string

	newBackOff func() backoff.BackOff
	now        func() time.Time
}

// NewFactory returns a factory that dials with dial and answers through r.
func NewFactory(cfg Config, dial DialFunc, r Dispatcher, books router.Books) *Factory {
	if cfg.MaxConnectAttempts == 0 {
		cfg.MaxConnectAttempts = defaultConnectAttempts
	}
	return &Factory{
		cfg:    cfg,
		dial:   dial,
		router: r,
		books:  books,
		nick:   cfg.Nick,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		now: time.Now,
	}
}

// Phase reports the phase of the current session.
func (f *Factory) Phase() Phase { return Phase(f.phase.Load()) }

// Nick reports the nick the factory dials with.
func (f *Factory) Nick() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nick
}

func (f *Factory) setNick(n string) {
	f.mu.Lock()
	f.nick = n
	f.mu.Unlock()
}

func (f *Factory) newSession(t Transport, nick string) *Session {
	return &Session{
		transport: t,
		router:    f.router,
		books:     f.books,
		nick:      nick,
		channel:   f.cfg.Channel,
		logPath:   f.cfg.LogPath,
		phase:     &f.phase,
		now:       f.now,
		logger:    slog.Default().With(slog.String("component", "session"), slog.String("channel", f.cfg.Channel)),
	}
}

// attempt dials once and runs the connection to completion. It only
// reports an error when the connection never got established; a session
// that connected, or that hit a nick collision, ends without one.
func (f *Factory) attempt(ctx context.Context) (*Session, error) {
	nick := f.Nick()
	f.phase.Store(int32(PhaseConnecting))
	telemetry.SetSessionPhase(int(PhaseConnecting))

	dialCtx, span := telemetry.StartSpan(ctx, "session", "dial", telemetry.NickAttr(nick), telemetry.ChannelAttr(f.cfg.Channel))
	t, err := f.dial(dialCtx, nick)
	telemetry.RecordError(span, err)
	span.End()
	if err != nil {
		f.phase.Store(int32(PhaseDisconnected))
		return nil, fmt.Errorf("dial: %w", err)
	}
	s := f.newSession(t, nick)
	runErr := t.Run(ctx, func(ev Event) { s.Handle(ctx, ev) })

	reason := "connection closed"
	if runErr != nil {
		reason = runErr.Error()
	}
	s.Handle(ctx, Disconnected{Reason: reason})

	if ctx.Err() != nil {
		return s, backoff.Permanent(ctx.Err())
	}
	if s.established || s.nextNick != "" {
		return s, nil
	}
	if runErr == nil {
		runErr = errors.New("connection closed before registration")
	}
	return s, runErr
}

// Run keeps a session alive until ctx is cancelled, which returns nil. It
// returns an error wrapping ErrConnectFailed once every establishment
// attempt in a row has failed.
func (f *Factory) Run(ctx context.Context) error {
	log := slog.Default().With(slog.String("component", "session"))
	for {
		if ctx.Err() != nil {
			return nil
		}
		s, err := backoff.Retry(ctx, func() (*Session, error) {
			return f.attempt(ctx)
		},
			backoff.WithBackOff(f.newBackOff()),
			backoff.WithMaxTries(f.cfg.MaxConnectAttempts),
			backoff.WithNotify(func(err error, next time.Duration) {
				log.Warn("connect failed; retrying", slog.Any("err", err), slog.Duration("next", next))
			}),
		)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w after %d attempts: %v", ErrConnectFailed, f.cfg.MaxConnectAttempts, err)
		}
		if s.nextNick != "" {
			f.setNick(s.nextNick)
			log.Info("redialing with new nick", slog.String("nick", s.nextNick))
			continue
		}
		telemetry.Inc(telemetry.Reconnects)
		log.Warn("connection lost; reconnecting")
	}
}
