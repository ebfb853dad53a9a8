package models

// RoomKind selects which backend history endpoint a room id resolves to.
type RoomKind string

const (
	RoomChannel       RoomKind = "channel"
	RoomDirectMessage RoomKind = "dm"
)

// Room identifies one real-time room: a server channel or a direct-message
// thread. The ID is the correlation key for every broker event in that room.
type Room struct {
	ID   string   `json:"id"`
	Kind RoomKind `json:"kind"`
}

// Zero reports whether no room is selected.
func (r Room) Zero() bool {
	return r.ID == ""
}
