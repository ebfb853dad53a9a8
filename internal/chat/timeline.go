package chat

import "chat-client/internal/models"

// Timeline is the ordered, deduplicated message list of one room. Entries
// keep local append order: hydration results first, then broadcasts in
// arrival order. There is no re-sort after hydration.
//
// Timeline is not safe for concurrent use; the Client serializes all access
// under its lock.
type Timeline struct {
	room    models.Room
	entries []models.Message
}

// NewTimeline creates an empty timeline for a room.
func NewTimeline(room models.Room) *Timeline {
	return &Timeline{room: room}
}

// Hydrate appends backend history verbatim. It runs once, before any live
// traffic for the room.
func (t *Timeline) Hydrate(msgs []models.Message) {
	t.entries = append(t.entries, msgs...)
}

// Append adds one entry at the end.
func (t *Timeline) Append(msg models.Message) {
	t.entries = append(t.entries, msg)
}

// Confirm replaces a provisional entry's id and created-at with the backend's
// authoritative values. Returns false when the provisional entry is gone
// (deleted before confirmation arrived).
func (t *Timeline) Confirm(localID string, confirmed models.Message) bool {
	for i := range t.entries {
		if t.entries[i].ID == localID {
			t.entries[i].ID = confirmed.ID
			if !confirmed.CreatedAt.IsZero() {
				t.entries[i].CreatedAt = confirmed.CreatedAt
			}
			return true
		}
	}
	return false
}

// Remove deletes the entry with the given id. Returns false when absent.
func (t *Timeline) Remove(messageID string) bool {
	for i := range t.entries {
		if t.entries[i].ID == messageID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns a copy of the entries in timeline order.
func (t *Timeline) Messages() []models.Message {
	out := make([]models.Message, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}
