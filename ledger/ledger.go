// Package ledger keeps per-handle contact records and points, writing the
// full ledger through to the store after every mutation.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/onnwee/al/db"
	"github.com/onnwee/al/model"
)

// RememberOutcome reports what Remember did.
type RememberOutcome int

const (
	Created RememberOutcome = iota
	AlreadyKnown
)

func (o RememberOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyKnown:
		return "already_known"
	default:
		return "unknown"
	}
}

// UpdateOutcome reports what UpdateEmail did.
type UpdateOutcome int

const (
	Updated UpdateOutcome = iota
	UnknownUser
	MissingArgument
)

func (o UpdateOutcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case UnknownUser:
		return "unknown_user"
	case MissingArgument:
		return "missing_argument"
	default:
		return "unknown"
	}
}

// Ledger maps handles to records. It is not safe for concurrent use; the
// session delivers one event at a time.
type Ledger struct {
	store db.Store
	users model.Users
}

// New loads the ledger from store.
func New(ctx context.Context, store db.Store) *Ledger {
	users := store.LoadUsers(ctx)
	if users == nil {
		users = model.Users{}
	}
	return &Ledger{store: store, users: users}
}

// Ensure returns the record for handle, creating an empty one if needed.
// It does not persist on its own.
func (l *Ledger) Ensure(handle string) model.UserRecord {
	rec, ok := l.users[handle]
	if !ok {
		rec = model.UserRecord{}
		l.users[handle] = rec
	}
	return rec
}

// Get returns the record for handle without creating one.
func (l *Ledger) Get(handle string) (model.UserRecord, bool) {
	rec, ok := l.users[handle]
	return rec, ok
}

// AwardPoint adds one point to handle and returns the new total. A non-nil
// error means the save failed; the in-memory total still stands.
func (l *Ledger) AwardPoint(ctx context.Context, handle string) (int, error) {
	rec := l.Ensure(handle)
	rec.Points++
	l.users[handle] = rec
	return rec.Points, l.persist(ctx)
}

// Remember creates a record for an unknown handle. The optional arguments are
// positional: email then phone. The phone is only read when an email is
// given.
func (l *Ledger) Remember(ctx context.Context, handle string, args ...string) (RememberOutcome, error) {
	if _, ok := l.users[handle]; ok {
		return AlreadyKnown, nil
	}
	rec := model.UserRecord{}
	if len(args) > 0 && args[0] != "" {
		rec.Email = args[0]
		if len(args) > 1 {
			rec.Phone = args[1]
		}
	}
	l.users[handle] = rec
	return Created, l.persist(ctx)
}

// UpdateEmail replaces the email of a known handle.
func (l *Ledger) UpdateEmail(ctx context.Context, handle, newEmail string) (UpdateOutcome, error) {
	if handle == "" || newEmail == "" {
		return MissingArgument, nil
	}
	rec, ok := l.users[handle]
	if !ok {
		return UnknownUser, nil
	}
	rec.Email = newEmail
	l.users[handle] = rec
	return Updated, l.persist(ctx)
}

// List returns every known handle in ascending order.
func (l *Ledger) List() []string {
	out := make([]string, 0, len(l.users))
	for h := range l.users {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) persist(ctx context.Context) error {
	if err := l.store.SaveUsers(ctx, l.users.Clone()); err != nil {
		return fmt.Errorf("save user ledger: %w", err)
	}
	return nil
}
