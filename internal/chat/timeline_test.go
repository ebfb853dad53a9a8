package chat

import (
	"testing"
	"time"

	"chat-client/internal/models"
)

func TestTimelineAppendKeepsArrivalOrder(t *testing.T) {
	tl := NewTimeline(models.Room{ID: "c1", Kind: models.RoomChannel})

	tl.Hydrate([]models.Message{{ID: "m1", Content: "first"}, {ID: "m2", Content: "second"}})
	tl.Append(models.Message{ID: "m3", Content: "third"})

	msgs := tl.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Fatalf("entry %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}
}

func TestTimelineConfirmReplacesProvisionalValues(t *testing.T) {
	tl := NewTimeline(models.Room{ID: "c1", Kind: models.RoomChannel})
	localID := models.LocalID("abc")
	tl.Append(models.Message{ID: localID, Content: "hello"})

	authoritative := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !tl.Confirm(localID, models.Message{ID: "m9", CreatedAt: authoritative}) {
		t.Fatalf("expected confirm to find the provisional entry")
	}

	msg := tl.Messages()[0]
	if msg.ID != "m9" {
		t.Fatalf("expected authoritative id, got %q", msg.ID)
	}
	if !msg.CreatedAt.Equal(authoritative) {
		t.Fatalf("expected authoritative created-at, got %v", msg.CreatedAt)
	}
	if msg.Content != "hello" {
		t.Fatalf("content changed on confirm: %q", msg.Content)
	}
}

func TestTimelineConfirmAfterRemove(t *testing.T) {
	tl := NewTimeline(models.Room{ID: "c1", Kind: models.RoomChannel})
	localID := models.LocalID("abc")
	tl.Append(models.Message{ID: localID, Content: "hello"})

	if !tl.Remove(localID) {
		t.Fatalf("expected remove to succeed")
	}
	if tl.Confirm(localID, models.Message{ID: "m9"}) {
		t.Fatalf("expected confirm to report the entry gone")
	}
	if tl.Len() != 0 {
		t.Fatalf("expected empty timeline, got %d entries", tl.Len())
	}
}

func TestTimelineRemoveMissing(t *testing.T) {
	tl := NewTimeline(models.Room{ID: "c1", Kind: models.RoomChannel})
	tl.Append(models.Message{ID: "m1"})

	if tl.Remove("m2") {
		t.Fatalf("expected remove of unknown id to report false")
	}
	if tl.Len() != 1 {
		t.Fatalf("expected entry to survive, got %d", tl.Len())
	}
}
