package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomDefaults(t *testing.T) {
	room := NewRoom("room1")
	assert.Equal(t, "room1", room.ID)
	assert.Equal(t, DefaultLanguage, room.Language)
	assert.Empty(t, room.Members)
	assert.False(t, room.CreatedAt.IsZero())
}

func TestMemberNamesSortedWithDuplicates(t *testing.T) {
	room := NewRoom("room1")
	room.Members["c1"] = Participant{ConnectionID: "c1", DisplayName: "Bob"}
	room.Members["c2"] = Participant{ConnectionID: "c2", DisplayName: "Alice"}
	room.Members["c3"] = Participant{ConnectionID: "c3", DisplayName: "Bob"}

	assert.Equal(t, []string{"Alice", "Bob", "Bob"}, room.MemberNames())
}

func TestSnapshotRoundTripsActiveUsers(t *testing.T) {
	room := NewRoom("room1")
	room.Code = "print(1)"
	room.Members["c1"] = Participant{ConnectionID: "c1", DisplayName: "Alice"}

	snap, err := room.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "room1", snap.RoomID)
	assert.Equal(t, "print(1)", snap.Code)

	names, err := snap.ParseActiveUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)
}

func TestParseActiveUsersEmptyColumn(t *testing.T) {
	snap := &RoomSnapshot{}
	names, err := snap.ParseActiveUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)
}
