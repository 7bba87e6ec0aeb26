package mention

import (
	"context"
	"reflect"
	"testing"

	"github.com/onnwee/al/db"
	"github.com/onnwee/al/model"
	"github.com/onnwee/al/testutil"
)

func TestDrainReturnsFIFOThenEmpty(t *testing.T) {
	ctx := context.Background()
	q := New(ctx, testutil.NewMemoryStore())
	if err := q.Enqueue(ctx, "carol", "dave", "hi"); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(ctx, "carol", "eve", "yo"); err != nil {
		t.Fatal(err)
	}

	got, err := q.Drain(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	want := []model.PendingMention{{From: "dave", Body: "hi"}, {From: "eve", Body: "yo"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Drain(carol) = %#v, want %#v", got, want)
	}

	again, err := q.Drain(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second Drain(carol) = %#v, want empty", again)
	}
}

func TestDrainWithoutQueueDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	q := New(ctx, store)
	got, err := q.Drain(ctx, "nobody")
	if err != nil || len(got) != 0 {
		t.Fatalf("Drain(nobody) = (%v, %v), want (empty, nil)", got, err)
	}
	if store.MentionSaves != 0 {
		t.Errorf("Drain without a queue saved %d times", store.MentionSaves)
	}
}

func TestQueuesAreIndependent(t *testing.T) {
	ctx := context.Background()
	q := New(ctx, testutil.NewMemoryStore())
	_ = q.Enqueue(ctx, "carol", "dave", "hi")
	_ = q.Enqueue(ctx, "bob", "dave", "hey")
	if _, err := q.Drain(ctx, "carol"); err != nil {
		t.Fatal(err)
	}
	if q.Pending("bob") != 1 {
		t.Errorf("Pending(bob) = %d, want 1", q.Pending("bob"))
	}
}

func TestQueueSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store, err := db.NewFileStore(t.TempDir(), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	q := New(ctx, store)
	_ = q.Enqueue(ctx, "carol", "dave", "hi there")

	restarted := New(ctx, store)
	if restarted.Pending("carol") != 1 {
		t.Fatalf("Pending(carol) after restart = %d, want 1", restarted.Pending("carol"))
	}
	if _, err := restarted.Drain(ctx, "carol"); err != nil {
		t.Fatal(err)
	}
	if got := New(ctx, store).Pending("carol"); got != 0 {
		t.Errorf("Pending(carol) after drain+restart = %d, want 0", got)
	}
	if _, ok := store.LoadMentions(ctx)["carol"]; ok {
		t.Error("drained queue key retained in storage")
	}
}

func TestRender(t *testing.T) {
	got := Render("carol", model.PendingMention{From: "dave", Body: "lunch?"})
	if got != "carol, dave said: lunch?" {
		t.Errorf("Render() = %q", got)
	}
}
