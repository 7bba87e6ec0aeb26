// Package model holds the durable record types shared by the ledger store,
// the user ledger and the mention queue.
package model

// UserRecord is the contact and point bookkeeping kept for one handle.
type UserRecord struct {
	Email  string `json:"email" toml:"email" yaml:"email"`
	Phone  string `json:"phone" toml:"phone" yaml:"phone"`
	Points int    `json:"points" toml:"points" yaml:"points"`
}

// PendingMention is a tell waiting for its target to show up.
type PendingMention struct {
	From string `json:"from" toml:"from" yaml:"from"`
	Body string `json:"body" toml:"body" yaml:"body"`
}

// Users maps a handle (case-sensitive) to its record.
type Users map[string]UserRecord

// Mentions maps a target handle to its queue, oldest first.
// A handle with no pending mentions has no key.
type Mentions map[string][]PendingMention

// Clone returns a deep copy so callers can persist a snapshot.
func (u Users) Clone() Users {
	out := make(Users, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy with empty queues dropped.
func (m Mentions) Clone() Mentions {
	out := make(Mentions, len(m))
	for k, v := range m {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]PendingMention(nil), v...)
	}
	return out
}
