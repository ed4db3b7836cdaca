package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoomSnapshot is the durable representation of a room. One row per room;
// every flush overwrites the persisted fields unconditionally
// (last-writer-wins, no versioning).
type RoomSnapshot struct {
	RoomID      string    `gorm:"primaryKey;size:191" json:"roomId"`
	Code        string    `gorm:"type:text" json:"code"`
	Language    string    `gorm:"size:50;not null;default:python" json:"language"`
	ActiveUsers string    `gorm:"type:text" json:"activeUsers"` // JSON array of display names at last save
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the table name; the default pluralization would differ.
func (RoomSnapshot) TableName() string { return "rooms" }

// SetActiveUsers serializes the member-name list into the ActiveUsers column.
func (s *RoomSnapshot) SetActiveUsers(names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal active users: %w", err)
	}
	s.ActiveUsers = string(data)
	return nil
}

// ParseActiveUsers deserializes the ActiveUsers column. An empty column
// parses as an empty list.
func (s *RoomSnapshot) ParseActiveUsers() ([]string, error) {
	if s.ActiveUsers == "" || s.ActiveUsers == "null" {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(s.ActiveUsers), &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active users: %w", err)
	}
	return names, nil
}
