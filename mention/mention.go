// Package mention queues tells for handles that are not around and hands
// them back, oldest first, the next time the handle is seen.
package mention

import (
	"context"
	"fmt"

	"github.com/onnwee/al/db"
	"github.com/onnwee/al/model"
)

// Queue holds pending mentions per target. It is not safe for concurrent use.
type Queue struct {
	store   db.Store
	pending model.Mentions
}

// New loads the queue from store.
func New(ctx context.Context, store db.Store) *Queue {
	pending := store.LoadMentions(ctx)
	if pending == nil {
		pending = model.Mentions{}
	}
	return &Queue{store: store, pending: pending.Clone()}
}

// Enqueue appends a mention for target and persists the queue.
func (q *Queue) Enqueue(ctx context.Context, target, from, body string) error {
	q.pending[target] = append(q.pending[target], model.PendingMention{From: from, Body: body})
	return q.persist(ctx)
}

// Drain removes and returns target's whole queue. It is a no-op, with no
// write, when target has nothing pending. On a save error the mentions are
// still returned and stay removed from memory.
func (q *Queue) Drain(ctx context.Context, target string) ([]model.PendingMention, error) {
	queued, ok := q.pending[target]
	if !ok {
		return nil, nil
	}
	delete(q.pending, target)
	return queued, q.persist(ctx)
}

// Pending returns how many mentions wait for target.
func (q *Queue) Pending(target string) int {
	return len(q.pending[target])
}

// Render formats a mention the way it is announced in the channel.
func Render(target string, m model.PendingMention) string {
	return fmt.Sprintf("%s, %s said: %s", target, m.From, m.Body)
}

func (q *Queue) persist(ctx context.Context) error {
	if err := q.store.SaveMentions(ctx, q.pending.Clone()); err != nil {
		return fmt.Errorf("save mention queue: %w", err)
	}
	return nil
}
