package domain

import (
	"sort"
	"time"
)

// Participant is one live connection attached to a room. Display names are
// free text and carry no uniqueness constraint; the ConnectionID is the
// identity of the participant for as long as the socket lives.
type Participant struct {
	ConnectionID string
	DisplayName  string
}

// Room is the live, in-memory representation of a collaborative session.
// A Room exists in the session registry iff it has at least one member;
// its durable counterpart is RoomSnapshot.
type Room struct {
	ID        string
	Code      string
	Language  string
	Members   map[string]Participant // keyed by ConnectionID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRoom creates an empty live room with the default language.
func NewRoom(id string) *Room {
	now := time.Now().UTC()
	return &Room{
		ID:        id,
		Language:  DefaultLanguage,
		Members:   make(map[string]Participant),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MemberNames returns the display names of all current members, sorted for
// deterministic broadcasts. Duplicate names are preserved.
func (r *Room) MemberNames() []string {
	names := make([]string, 0, len(r.Members))
	for _, p := range r.Members {
		names = append(names, p.DisplayName)
	}
	sort.Strings(names)
	return names
}

// Snapshot converts the room's persisted fields into its durable form.
func (r *Room) Snapshot() (*RoomSnapshot, error) {
	snap := &RoomSnapshot{
		RoomID:    r.ID,
		Code:      r.Code,
		Language:  r.Language,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := snap.SetActiveUsers(r.MemberNames()); err != nil {
		return nil, err
	}
	return snap, nil
}

// RoomInfo is the lightweight metadata exposed by the room listing surface.
type RoomInfo struct {
	ID          string    `json:"roomId"`
	Language    string    `json:"language"`
	MemberCount int       `json:"memberCount"`
	Members     []string  `json:"members"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
