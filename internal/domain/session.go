// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 64

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

// SessionID is the opaque connection-scoped identifier (browser token).
type SessionID string

// Session is one connected participant. Destroyed on disconnect.
type Session struct {
	ID     SessionID `json:"-"`
	Name   string    `json:"name"`
	Room   RoomID    `json:"-"`
	IsHost bool      `json:"isHost"`
}

// NewSession validates the display name up front so adapters never store
// an unbounded string.
func NewSession(id SessionID, name string, room RoomID, isHost bool) (*Session, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Session{ID: id, Name: name, Room: room, IsHost: isHost}, nil
}
