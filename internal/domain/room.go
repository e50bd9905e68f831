package domain

// RoomID is externally supplied; rooms are created lazily on first join.
type RoomID string
