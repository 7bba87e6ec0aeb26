// Package router classifies inbound chat lines and dispatches the ones
// addressed to the bot to their handlers.
//
// A line is one of: a direct (private) line to the bot, which only ever gets
// a refusal; a "handle++" point award; a directed command ("AL: weather
// 94103"); or ordinary traffic, which is ignored. Handlers run behind a
// recover boundary and report failures as typed Results, which the router
// turns into apology lines for the channel. Nothing a handler does can end
// the session.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/al/content"
	"github.com/onnwee/al/ledger"
	"github.com/onnwee/al/mention"
	"github.com/onnwee/al/telemetry"
)

// RefusalText is the only answer a direct message ever gets.
const RefusalText = "It isn't nice to whisper!  Play nice with the group."

const (
	defaultAdapterTimeout = 10 * time.Second
	defaultChannelAnswers = 2
	genericApology        = "Sorry, something went wrong with that command."
)

// Kind is the classification of an inbound line.
type Kind int

const (
	KindTraffic Kind = iota
	KindEmpty
	KindDirect
	KindPoint
	KindDirected
)

// Reply is one outbound line. Direct replies go to the handle in To, others
// to the channel in To.
type Reply struct {
	To     string
	Text   string
	Direct bool
}

// Request is one classified inbound line.
type Request struct {
	Nick   string // the bot's current handle
	Sender string
	Target string // channel, or Nick for a direct line
	Text   string
	Tokens []string
	Kind   Kind
	// Command is the matched registry entry; empty for the question fallback.
	Command string
	Args    []string
	// Query is the text after the "Nick:" token, verbatim.
	Query string
}

var singleWordCommands = map[string]bool{
	"cafe": true, "hi": true, "weather": true, "tell": true, "help": true,
	"movie": true, "define": true, "remember": true, "song": true,
}

var twoWordCommands = map[string]bool{
	"show users":   true,
	"update email": true,
}

// Parse classifies a line. target is the channel the line was sent to, or
// the bot's nick when it was sent privately.
func Parse(nick, sender, target, text string) Request {
	req := Request{Nick: nick, Sender: sender, Target: target, Text: text, Tokens: strings.Fields(text)}
	switch {
	case target == nick:
		req.Kind = KindDirect
	case len(req.Tokens) == 0:
		req.Kind = KindEmpty
	case pointTarget(req.Tokens[0]) != "":
		req.Kind = KindPoint
		req.Args = []string{pointTarget(req.Tokens[0])}
	case req.Tokens[0] == nick+":":
		req.Kind = KindDirected
		req.Query = strings.TrimSpace(text[strings.Index(text, req.Tokens[0])+len(req.Tokens[0]):])
		req.Command, req.Args = matchCommand(req.Tokens[1:])
	default:
		req.Kind = KindTraffic
	}
	return req
}

func pointTarget(token string) string {
	if len(token) > 2 && strings.HasSuffix(token, "++") {
		return strings.TrimSuffix(token, "++")
	}
	return ""
}

func matchCommand(rest []string) (string, []string) {
	if len(rest) >= 2 && twoWordCommands[rest[0]+" "+rest[1]] {
		return rest[0] + " " + rest[1], rest[2:]
	}
	if len(rest) >= 1 && singleWordCommands[rest[0]] {
		return rest[0], rest[1:]
	}
	return "", nil
}

// Forecaster is the weather adapter.
type Forecaster interface {
	Current(ctx context.Context, loc content.Location) (content.Forecast, error)
}

// MenuSource is the cafe menu adapter.
type MenuSource interface {
	Today(ctx context.Context) (content.Menu, error)
}

// Dictionary is the slang adapter.
type Dictionary interface {
	Define(ctx context.Context, term string) (content.Definition, error)
}

// MovieRater is the movie rating adapter.
type MovieRater interface {
	Rate(ctx context.Context, title, accessKey string) (content.Rating, error)
}

// Jukebox is the now-playing adapter.
type Jukebox interface {
	NowPlaying(ctx context.Context, username string) (string, bool, error)
}

// Oracle is the general-knowledge adapter.
type Oracle interface {
	Ask(ctx context.Context, query, accessKey string) ([]string, error)
}

// Adapters bundles the content adapters. A nil adapter makes its command
// answer with an apology.
type Adapters struct {
	Menu    MenuSource
	Weather Forecaster
	Slang   Dictionary
	Movies  MovieRater
	Music   Jukebox
	Oracle  Oracle
}

// Config holds the router's credentials and limits.
type Config struct {
	MovieKey        string
	KnowledgeKey    string
	DefaultListener string
	AdapterTimeout  time.Duration
	// ChannelAnswers caps how many answer fragments go to the channel; the
	// rest are sent to the asker directly.
	ChannelAnswers int
}

// Books are the durable ledgers a dispatch may read and write. The router
// only holds them for the duration of a Route call.
type Books struct {
	Users    *ledger.Ledger
	Mentions *mention.Queue
}

type handler func(ctx context.Context, r *Router, req *Request, books Books) Result

// Router dispatches classified lines.
type Router struct {
	cfg      Config
	adapters Adapters
	handlers map[string]handler
}

// New returns a router with the full command registry.
func New(cfg Config, adapters Adapters) *Router {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = defaultAdapterTimeout
	}
	if cfg.ChannelAnswers <= 0 {
		cfg.ChannelAnswers = defaultChannelAnswers
	}
	return &Router{
		cfg:      cfg,
		adapters: adapters,
		handlers: map[string]handler{
			"cafe":         handleCafe,
			"hi":           handleHi,
			"weather":      handleWeather,
			"tell":         handleTell,
			"help":         handleHelp,
			"movie":        handleMovie,
			"define":       handleDefine,
			"show users":   handleShowUsers,
			"remember":     handleRemember,
			"update email": handleUpdateEmail,
			"song":         handleSong,
		},
	}
}

// Route answers one classified line.
func (r *Router) Route(ctx context.Context, req Request, books Books) []Reply {
	switch req.Kind {
	case KindDirect:
		return []Reply{{To: req.Sender, Text: RefusalText, Direct: true}}
	case KindPoint:
		return r.dispatch(ctx, "points", handlePoint, &req, books)
	case KindDirected:
		if h, ok := r.handlers[req.Command]; ok {
			return r.dispatch(ctx, req.Command, h, &req, books)
		}
		return r.dispatch(ctx, "ask", handleAsk, &req, books)
	default:
		return nil
	}
}

func (r *Router) dispatch(ctx context.Context, name string, h handler, req *Request, books Books) []Reply {
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	ctx, span := telemetry.StartSpan(ctx, "router", "command "+name, telemetry.CommandAttr(name), telemetry.SenderAttr(req.Sender))
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("command", name), slog.String("sender", req.Sender), slog.String("component", "router"))

	res := r.safely(ctx, h, req, books)
	telemetry.CountCommand(name, res.outcome())

	if res.SaveErr != nil {
		telemetry.Inc(telemetry.PersistenceErrors)
		log.Error("ledger save failed", slog.String("kind", PersistenceFailure.String()), slog.Any("err", res.SaveErr))
	}
	if f := res.Failure; f != nil {
		telemetry.RecordError(span, f)
		if f.Kind == ValidationFailure {
			log.Info("command rejected", slog.String("reason", f.Message))
		} else {
			log.Warn("command failed", slog.String("kind", f.Kind.String()), slog.Any("err", f.Err))
		}
		return []Reply{{To: req.Target, Text: f.Message}}
	}
	telemetry.SetSpanSuccess(span)
	log.Debug("command handled", slog.Int("replies", len(res.Replies)))
	return res.Replies
}

func (r *Router) safely(ctx context.Context, h handler, req *Request, books Books) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = adapterFailed(fmt.Errorf("handler panic: %v", p), genericApology)
		}
	}()
	return h(ctx, r, req, books)
}

// call runs an adapter request under the adapter timeout and records its
// duration.
func (r *Router) call(ctx context.Context, adapter string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.AdapterTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "router", "adapter "+adapter, telemetry.AdapterAttr(adapter))
	defer span.End()
	var err error
	telemetry.TimeFunc(telemetry.ObserveAdapter(adapter), func() { err = fn(ctx) })
	if err != nil && !isNotFound(err) {
		telemetry.CountAdapterFailure(adapter)
		telemetry.RecordError(span, err)
	}
	return err
}

func say(req *Request, text string) Reply { return Reply{To: req.Target, Text: text} }

func whisper(req *Request, text string) Reply { return Reply{To: req.Sender, Text: text, Direct: true} }
