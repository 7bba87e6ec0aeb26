package chat

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/irc.v4"

	"github.com/onnwee/al/session"
)

const (
	dialTimeout  = 30 * time.Second
	quitTimeout  = time.Second
	quitMessage  = "bye"
	realName     = "AL"
	ctcpDelim    = "\x01"
	ctcpActionOp = "ACTION"
)

// Config is where and how to connect.
type Config struct {
	Host string
	Port int
	// Password is sent as PASS during registration when non-empty.
	Password string
	// ForceTLS enables TLS on ports other than 443 and 6697.
	ForceTLS bool
}

func (c Config) address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) tls() bool {
	return c.ForceTLS || c.Port == 443 || c.Port == 6697
}

// Transport is a single IRC connection.
type Transport struct {
	cfg  Config
	nick string
	log  *slog.Logger

	mu     sync.Mutex
	conn   net.Conn
	client *irc.Client
	closed bool
}

var _ session.Transport = (*Transport)(nil)

// New returns a transport that registers as nick when run.
func New(cfg Config, nick string) *Transport {
	return &Transport{
		cfg:  cfg,
		nick: nick,
		log:  slog.Default().With(slog.String("component", "chat"), slog.String("nick", nick)),
	}
}

// Dialer returns a session.DialFunc that builds transports for cfg.
func Dialer(cfg Config) session.DialFunc {
	return func(_ context.Context, nick string) (session.Transport, error) {
		if cfg.Host == "" {
			return nil, errors.New("chat host not set")
		}
		return New(cfg, nick), nil
	}
}

func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: dialTimeout, KeepAlive: 10 * time.Second}
	if !t.cfg.tls() {
		return d.DialContext(ctx, "tcp", t.cfg.address())
	}
	td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}}
	return td.DialContext(ctx, "tcp", t.cfg.address())
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Run connects and blocks until the connection ends, Close is called or
// ctx is cancelled. The last two return nil. Events are handed to handle
// one at a time, from the connection's reader.
func (t *Transport) Run(ctx context.Context, handle func(session.Event)) error {
	if t.isClosed() || ctx.Err() != nil {
		return nil
	}
	t.log.Debug("dialing chat server", slog.String("addr", t.cfg.address()), slog.Bool("tls", t.cfg.tls()))
	conn, err := t.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dial %s: %w", t.cfg.address(), err)
	}

	client := irc.NewClient(conn, irc.ClientConfig{
		Nick: t.nick,
		Pass: t.cfg.Password,
		User: t.nick,
		Name: realName,
		Handler: irc.HandlerFunc(func(_ *irc.Client, m *irc.Message) {
			if t.isClosed() {
				return
			}
			if ev := translate(t.nick, m); ev != nil {
				handle(ev)
			}
		}),
	})

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	t.conn, t.client = conn, client
	t.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	err = client.RunContext(ctx)
	if t.isClosed() || ctx.Err() != nil {
		return nil
	}
	_ = conn.Close()
	if err == nil {
		return errors.New("connection closed by server")
	}
	return err
}

// translate maps one server message to a session event, or nil when the
// session has no use for it. nick is the nick we registered with.
func translate(nick string, m *irc.Message) session.Event {
	var sender string
	if m.Prefix != nil {
		sender = m.Prefix.Name
	}
	switch m.Command {
	case "001":
		return session.Connected{}
	case "433":
		attempted := nick
		if len(m.Params) >= 2 {
			attempted = m.Params[1]
		}
		return session.NickCollision{Attempted: attempted}
	case "JOIN":
		if sender == "" || len(m.Params) == 0 {
			return nil
		}
		if strings.EqualFold(sender, nick) {
			return session.Joined{Channel: m.Params[0]}
		}
		return session.UserEntered{Handle: sender, Channel: m.Params[0]}
	case "NICK":
		if sender == "" || len(m.Params) == 0 {
			return nil
		}
		return session.NickChanged{Old: sender, New: m.Params[0]}
	case "PRIVMSG":
		if sender == "" || len(m.Params) < 2 {
			return nil
		}
		target, text := m.Params[0], m.Params[len(m.Params)-1]
		if action, ok := ctcpAction(text); ok {
			if !isChannel(target) {
				return nil
			}
			return session.Action{Sender: sender, Channel: target, Text: action}
		}
		if !isChannel(target) {
			return session.Line{Sender: sender, Target: nick, Text: text}
		}
		return session.Line{Sender: sender, Target: target, Text: text}
	}
	return nil
}

// ctcpAction unwraps a CTCP ACTION ("/me") body.
func ctcpAction(text string) (string, bool) {
	if !strings.HasPrefix(text, ctcpDelim+ctcpActionOp) {
		return "", false
	}
	body := strings.TrimPrefix(text, ctcpDelim+ctcpActionOp)
	body = strings.TrimSuffix(body, ctcpDelim)
	return strings.TrimPrefix(body, " "), true
}

func isChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&+!", rune(target[0]))
}

// channelName adds a missing leading '#'.
func channelName(name string) string {
	if name == "" || isChannel(name) {
		return name
	}
	return "#" + name
}

func (t *Transport) write(m *irc.Message) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		t.log.Warn("write before connect dropped", slog.String("command", m.Command))
		return
	}
	if err := client.WriteMessage(m); err != nil {
		t.log.Warn("write failed", slog.String("command", m.Command), slog.Any("err", err))
	}
}

// Join asks the server to join channel.
func (t *Transport) Join(channel string) {
	t.write(&irc.Message{Command: "JOIN", Params: []string{channelName(channel)}})
}

// SendToChannel says text in channel.
func (t *Transport) SendToChannel(channel, text string) {
	t.write(&irc.Message{Command: "PRIVMSG", Params: []string{channelName(channel), text}})
}

// SendDirect sends text privately to handle.
func (t *Transport) SendDirect(handle, text string) {
	t.write(&irc.Message{Command: "PRIVMSG", Params: []string{handle, text}})
}

// Close quits and drops the connection. It is safe to call more than once
// and before Run.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn, client := t.conn, t.client
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(quitTimeout))
	_ = client.WriteMessage(&irc.Message{Command: "QUIT", Params: []string{quitMessage}})
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
