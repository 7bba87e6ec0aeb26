package session

import "context"

// Event is something the transport observed on the connection.
type Event interface{ isEvent() }

// Connected means the server accepted our registration.
type Connected struct{}

// Joined means we are now in Channel.
type Joined struct{ Channel string }

// Disconnected means the connection is gone.
type Disconnected struct{ Reason string }

// NickCollision means the server refused Attempted because it is in use.
type NickCollision struct{ Attempted string }

// Line is a message from Sender to Target, which is either a channel or our
// own nick for a private line.
type Line struct {
	Sender string
	Target string
	Text   string
}

// Action is a "/me" line in Channel.
type Action struct {
	Sender  string
	Channel string
	Text    string
}

// UserEntered means Handle joined Channel.
type UserEntered struct {
	Handle  string
	Channel string
}

// NickChanged means Old is now known as New.
type NickChanged struct {
	Old string
	New string
}

func (Connected) isEvent()     {}
func (Joined) isEvent()        {}
func (Disconnected) isEvent()  {}
func (NickCollision) isEvent() {}
func (Line) isEvent()          {}
func (Action) isEvent()        {}
func (UserEntered) isEvent()   {}
func (NickChanged) isEvent()   {}

// Transport is one live connection to the chat server. Run blocks until the
// connection ends, calling handle for each event from a single goroutine.
type Transport interface {
	Run(ctx context.Context, handle func(Event)) error
	Join(channel string)
	SendToChannel(channel, text string)
	SendDirect(handle, text string)
	Close() error
}
