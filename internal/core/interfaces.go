package core

import "github.com/avelex/watchparty/internal/domain"

// Frame is a marshaled wire event.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Session and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Session
	Signal() SignalConnection
}

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta *domain.Session
	conn SignalConnection
}

func NewMemberSession(meta *domain.Session, conn SignalConnection) MemberSession {
	return &memberSession{meta: meta, conn: conn}
}

func (m *memberSession) Meta() *domain.Session    { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.conn }

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Muted  bool   `json:"muted"`
}
