// Package session drives one bot connection at a time: it feeds transport
// events through the mention queue and the command router, keeps the
// conversation log, and redials when the connection is lost.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/onnwee/al/router"
	"github.com/onnwee/al/telemetry"
)

// Phase is where a session is in its connection lifecycle.
type Phase int32

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseJoined
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Dispatcher answers classified lines. *router.Router implements it.
type Dispatcher interface {
	Route(ctx context.Context, req router.Request, books router.Books) []router.Reply
}

// Session handles the events of a single connection. Handle must not be
// called concurrently.
type Session struct {
	transport Transport
	router    Dispatcher
	books     router.Books
	nick      string
	channel   string
	logPath   string
	phase     *atomic.Int32

	msgs        *MessageLogger
	established bool
	joined      bool
	nextNick    string
	now         func() time.Time
	logger      *slog.Logger
}

func (s *Session) setPhase(p Phase) {
	if s.phase != nil {
		s.phase.Store(int32(p))
	}
	telemetry.SetSessionPhase(int(p))
}

func (s *Session) record(msg string) {
	if err := s.msgs.Log(msg); err != nil {
		s.logger.Warn("message log write failed", slog.Any("err", err))
	}
}

// Handle consumes one event. Lines, actions, arrivals and nick changes are
// logged in any phase but only routed and drained once the channel is joined.
func (s *Session) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case Connected:
		s.established = true
		s.setPhase(PhaseConnected)
		if s.logPath != "" {
			msgs, err := OpenMessageLogger(s.logPath)
			if err != nil {
				s.logger.Error("open message log", slog.String("path", s.logPath), slog.Any("err", err))
			}
			s.msgs = msgs
		}
		s.record(fmt.Sprintf("[connected at %s]", s.now().Format(time.ANSIC)))
		s.logger.Info("connected", slog.String("nick", s.nick))
		s.transport.Join(s.channel)

	case Joined:
		s.joined = true
		s.setPhase(PhaseJoined)
		s.record(fmt.Sprintf("[I have joined %s]", e.Channel))
		s.logger.Info("joined channel", slog.String("channel", e.Channel))

	case Line:
		s.record(fmt.Sprintf("<%s> %s", e.Sender, e.Text))
		if !s.joined {
			return
		}
		if e.Target != s.nick {
			s.deliver(ctx, e.Sender)
		}
		req := router.Parse(s.nick, e.Sender, e.Target, e.Text)
		s.send(s.router.Route(ctx, req, s.books))

	case Action:
		s.record(fmt.Sprintf("* %s %s", e.Sender, e.Text))
		if s.joined {
			s.deliver(ctx, e.Sender)
		}

	case UserEntered:
		if e.Handle == s.nick || !s.joined {
			return
		}
		s.deliver(ctx, e.Handle)

	case NickChanged:
		s.record(fmt.Sprintf("%s is now known as %s", e.Old, e.New))
		if s.joined {
			s.deliver(ctx, e.New)
		}

	case NickCollision:
		s.nextNick = e.Attempted + "^"
		s.logger.Warn("nick in use; redialing", slog.String("attempted", e.Attempted), slog.String("next", s.nextNick))
		if err := s.transport.Close(); err != nil {
			s.logger.Warn("close transport", slog.Any("err", err))
		}

	case Disconnected:
		s.joined = false
		s.setPhase(PhaseDisconnected)
		s.record(fmt.Sprintf("[disconnected at %s]", s.now().Format(time.ANSIC)))
		if err := s.msgs.Close(); err != nil {
			s.logger.Warn("close message log", slog.Any("err", err))
		}
		s.msgs = nil
		s.logger.Info("disconnected", slog.String("reason", e.Reason))
	}
}

// deliver announces handle's pending mentions in the channel.
func (s *Session) deliver(ctx context.Context, handle string) {
	replies, err := router.Deliver(ctx, s.books.Mentions, s.channel, handle)
	if err != nil {
		telemetry.Inc(telemetry.PersistenceErrors)
		s.logger.Error("mention queue save failed", slog.String("target", handle), slog.Any("err", err))
	}
	s.send(replies)
}

func (s *Session) send(replies []router.Reply) {
	for _, r := range replies {
		for _, line := range strings.Split(r.Text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if r.Direct {
				s.transport.SendDirect(r.To, line)
				continue
			}
			s.transport.SendToChannel(r.To, line)
			s.record(fmt.Sprintf("<%s> %s", s.nick, line))
		}
	}
}
