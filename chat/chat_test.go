package chat

import (
	"context"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/irc.v4"

	"github.com/onnwee/al/session"
	"github.com/onnwee/al/testutil"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		raw  string
		want session.Event
	}{
		{":irc.example.net 001 AL :Welcome", session.Connected{}},
		{":irc.example.net 433 * AL :Nickname is already in use", session.NickCollision{Attempted: "AL"}},
		{":irc.example.net 433 AL", session.NickCollision{Attempted: "AL"}},
		{":AL!al@host JOIN #room", session.Joined{Channel: "#room"}},
		{":al!al@host JOIN :#room", session.Joined{Channel: "#room"}},
		{":bob!b@host JOIN :#room", session.UserEntered{Handle: "bob", Channel: "#room"}},
		{":bob!b@host PRIVMSG AL :psst private", session.Line{Sender: "bob", Target: "AL", Text: "psst private"}},
		{":bob!b@host PRIVMSG #room :AL: hi", session.Line{Sender: "bob", Target: "#room", Text: "AL: hi"}},
		{"@time=2024-01-01T00:00:00Z :bob!b@host PRIVMSG #room :tagged", session.Line{Sender: "bob", Target: "#room", Text: "tagged"}},
		{":bob!b@host PRIVMSG #room :\x01ACTION waves\x01", session.Action{Sender: "bob", Channel: "#room", Text: "waves"}},
		{":bob!b@host PRIVMSG AL :\x01ACTION waves\x01", nil},
		{":bob_!b@host NICK :bob", session.NickChanged{Old: "bob_", New: "bob"}},
		{"NICK :orphan", nil},
		{":irc.example.net 372 AL :motd", nil},
		{"PING :irc.example.net", nil},
	}
	for _, tt := range tests {
		m, err := irc.ParseMessage(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got := translate("AL", m); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("translate(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestCTCPAction(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"\x01ACTION waves\x01", "waves", true},
		{"\x01ACTION waves", "waves", true},
		{"\x01ACTION\x01", "", true},
		{"waves", "", false},
		{"\x01VERSION\x01", "", false},
	}
	for _, tt := range tests {
		got, ok := ctcpAction(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ctcpAction(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChannelName(t *testing.T) {
	tests := map[string]string{"room": "#room", "#room": "#room", "&local": "&local", "": ""}
	for in, want := range tests {
		if got := channelName(in); got != want {
			t.Errorf("channelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		cfg  Config
		addr string
		tls  bool
	}{
		{Config{Host: "irc.example", Port: 6667}, "irc.example:6667", false},
		{Config{Host: "irc.example", Port: 6697}, "irc.example:6697", true},
		{Config{Host: "irc.chat.twitch.tv", Port: 443}, "irc.chat.twitch.tv:443", true},
		{Config{Host: "irc.example", Port: 7000, ForceTLS: true}, "irc.example:7000", true},
		{Config{Host: "::1", Port: 6667}, "[::1]:6667", false},
	}
	for _, tt := range tests {
		if got := tt.cfg.address(); got != tt.addr {
			t.Errorf("address = %q, want %q", got, tt.addr)
		}
		if got := tt.cfg.tls(); got != tt.tls {
			t.Errorf("%s: tls = %v, want %v", tt.addr, got, tt.tls)
		}
	}
}

func TestDialerRequiresHost(t *testing.T) {
	if _, err := Dialer(Config{})(context.Background(), "AL"); err == nil {
		t.Fatal("expected error without host")
	}
	tr, err := Dialer(Config{Host: "irc.example", Port: 6667})(context.Background(), "AL")
	if err != nil || tr == nil {
		t.Fatalf("dial: %v", err)
	}
}

// runTransport starts tr and returns the event stream and
// Run's result.
func runTransport(ctx context.Context, tr *Transport) (<-chan session.Event, <-chan error) {
	events := make(chan session.Event, 32)
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, func(ev session.Event) { events <- ev }) }()
	return events, done
}

func nextEvent(t *testing.T, events <-chan session.Event) session.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestTransportConversation(t *testing.T) {
	srv := testutil.NewMockIRCServer(t)
	tr := New(Config{Host: srv.Host(), Port: srv.Port(), Password: "secret"}, "AL")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, done := runTransport(ctx, tr)

	if pass := srv.Expect(t, "PASS"); !strings.Contains(pass, "secret") {
		t.Fatalf("PASS line = %q", pass)
	}
	srv.Expect(t, "NICK")
	srv.Expect(t, "USER")
	srv.Send(t, ":irc.example.net 001 AL :Welcome to the network")
	if ev := nextEvent(t, events); ev != (session.Connected{}) {
		t.Fatalf("first event = %#v, want Connected", ev)
	}

	tr.Join("room")
	if line := srv.Expect(t, "JOIN"); !strings.Contains(line, "#room") {
		t.Fatalf("JOIN line = %q", line)
	}
	srv.Send(t,
		":AL!al@host JOIN #room",
		":bob!b@host JOIN :#room",
		":bob!b@host PRIVMSG AL :psst private",
		":bob!b@host PRIVMSG #room :\x01ACTION waves\x01",
		":bob!b@host PRIVMSG #room :AL: hi",
		":bob!b@host NICK :bobby",
		":irc.example.net 433 AL carol :Nickname is already in use",
	)
	want := []session.Event{
		session.Joined{Channel: "#room"},
		session.UserEntered{Handle: "bob", Channel: "#room"},
		session.Line{Sender: "bob", Target: "AL", Text: "psst private"},
		session.Action{Sender: "bob", Channel: "#room", Text: "waves"},
		session.Line{Sender: "bob", Target: "#room", Text: "AL: hi"},
		session.NickChanged{Old: "bob", New: "bobby"},
		session.NickCollision{Attempted: "carol"},
	}
	for i, w := range want {
		if got := nextEvent(t, events); !reflect.DeepEqual(got, w) {
			t.Fatalf("event %d = %#v, want %#v", i, got, w)
		}
	}

	tr.SendDirect("bob", "hello there")
	if line := srv.Expect(t, "PRIVMSG"); !strings.HasPrefix(line, "PRIVMSG bob ") || !strings.HasSuffix(line, "hello there") {
		t.Fatalf("direct line = %q", line)
	}
	tr.SendToChannel("#room", "hi all")
	if line := srv.Expect(t, "PRIVMSG"); !strings.HasPrefix(line, "PRIVMSG #room ") || !strings.HasSuffix(line, "hi all") {
		t.Fatalf("channel line = %q", line)
	}

	cancel()
	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run after cancel = %v, want nil", err)
	}
}

func TestTransportNickInUseDuringRegistration(t *testing.T) {
	srv := testutil.NewMockIRCServer(t)
	tr := New(Config{Host: srv.Host(), Port: srv.Port()}, "AL")
	events, done := runTransport(context.Background(), tr)

	srv.Expect(t, "NICK")
	srv.Send(t, ":irc.example.net 433 * AL :Nickname is already in use")
	if ev := nextEvent(t, events); ev != (session.NickCollision{Attempted: "AL"}) {
		t.Fatalf("event = %#v, want NickCollision", ev)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run after Close = %v, want nil", err)
	}
}

func TestTransportCloseBeforeWelcome(t *testing.T) {
	srv := testutil.NewMockIRCServer(t)
	tr := New(Config{Host: srv.Host(), Port: srv.Port()}, "AL")
	_, done := runTransport(context.Background(), tr)

	srv.Expect(t, "NICK")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run after Close = %v, want nil", err)
	}
}

func TestTransportServerHangup(t *testing.T) {
	srv := testutil.NewMockIRCServer(t)
	tr := New(Config{Host: srv.Host(), Port: srv.Port()}, "AL")
	_, done := runTransport(context.Background(), tr)

	srv.Expect(t, "NICK")
	srv.Close()
	if err := waitRun(t, done); err == nil {
		t.Fatal("Run after server hangup = nil, want error")
	}
}

func TestTransportDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()

	tr := New(Config{Host: "127.0.0.1", Port: addr.Port}, "AL")
	if err := tr.Run(context.Background(), func(session.Event) {}); err == nil {
		t.Fatal("Run against closed port = nil, want error")
	}
}

func TestRunAfterCloseReturns(t *testing.T) {
	tr := New(Config{Host: "127.0.0.1", Port: 1}, "AL")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(context.Background(), func(session.Event) {}); err != nil {
		t.Fatalf("Run after Close: %v", err)
	}
	tr.SendToChannel("#room", "dropped")
}
