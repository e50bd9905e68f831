package core

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/domain"
)

var ErrNameTaken = errors.New("name taken")

// Room is a threadsafe in-memory room. One mutex serializes every mutation
// of membership, mic table and playback state, so each control event is
// all-or-nothing with respect to room state. It never closes adapter-owned
// transport resources; stream handles are owned by the room's StreamSet.
type Room struct {
	id domain.RoomID

	mu       sync.RWMutex
	order    []domain.SessionID // join order
	bySID    map[domain.SessionID]MemberSession
	mic      map[string]bool // display name -> muted
	playback *domain.PlaybackState

	streams *StreamSet
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:      id,
		bySID:   make(map[domain.SessionID]MemberSession),
		mic:     make(map[string]bool),
		streams: NewStreamSet(id),
	}
}

func (r *Room) ID() domain.RoomID   { return r.id }
func (r *Room) Streams() *StreamSet { return r.streams }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

// AddMember registers a session and seeds its mic entry (unmuted). Display
// names are unique within a room: join-time rejection keeps the name-keyed
// relay and host checks sound.
func (r *Room) AddMember(ms MemberSession) error {
	name := ms.Meta().Name
	sid := ms.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mic[name]; ok {
		return ErrNameTaken
	}
	r.bySID[sid] = ms
	r.order = append(r.order, sid)
	r.mic[name] = false
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Str("name", name).Msg("member added")
	return nil
}

// RemoveMember drops the session and its mic entry. Reports whether the
// room became empty so the store can cascade destruction.
func (r *Room) RemoveMember(sid domain.SessionID) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ms, ok := r.bySID[sid]; ok {
		delete(r.mic, ms.Meta().Name)
	}
	delete(r.bySID, sid)
	for i, id := range r.order {
		if id == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Msg("member removed")
	return len(r.bySID) == 0
}

// Members returns sessions ordered by join time.
func (r *Room) Members() []MemberSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSession, 0, len(r.order))
	for _, sid := range r.order {
		if ms, ok := r.bySID[sid]; ok {
			out = append(out, ms)
		}
	}
	return out
}

func (r *Room) MemberByName(name string) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ms := range r.bySID {
		if ms.Meta().Name == name {
			return ms, true
		}
	}
	return nil, false
}

// SetMuted records the flag for a present member.
func (r *Room) SetMuted(name string, muted bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mic[name]; !ok {
		return false
	}
	r.mic[name] = muted
	return true
}

// MicSnapshot returns mic entries ordered by join time.
func (r *Room) MicSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.order))
	for _, sid := range r.order {
		ms, ok := r.bySID[sid]
		if !ok {
			continue
		}
		meta := ms.Meta()
		out = append(out, MemberDTO{Name: meta.Name, IsHost: meta.IsHost, Muted: r.mic[meta.Name]})
	}
	return out
}

// SetPlayback installs the room's playback clock (asset-ready event).
func (r *Room) SetPlayback(ps *domain.PlaybackState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playback = ps
}

// PlaybackSnapshot returns a copy of the playback state, if any.
func (r *Room) PlaybackSnapshot() (domain.PlaybackState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.playback == nil {
		return domain.PlaybackState{}, false
	}
	return *r.playback, true
}

// UpdatePlayback applies fn to the playback state iff it exists and the
// requester is the host. Any other identity is a silent no-op: the check
// and the mutation happen under one lock so no partial update is visible.
func (r *Room) UpdatePlayback(requester string, fn func(ps *domain.PlaybackState)) (domain.PlaybackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playback == nil || r.playback.HostName != requester {
		return domain.PlaybackState{}, false
	}
	fn(r.playback)
	return *r.playback, true
}

// ClearPlayback removes the playback state iff the requester is the host,
// returning the removed state for teardown cascades.
func (r *Room) ClearPlayback(requester string) (domain.PlaybackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playback == nil || r.playback.HostName != requester {
		return domain.PlaybackState{}, false
	}
	old := *r.playback
	r.playback = nil
	return old, true
}

// TakePlayback unconditionally detaches the playback state (room
// destruction path).
func (r *Room) TakePlayback() (domain.PlaybackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playback == nil {
		return domain.PlaybackState{}, false
	}
	old := *r.playback
	r.playback = nil
	return old, true
}

// PositionAt reports the extrapolated playback position.
func (r *Room) PositionAt(now time.Time) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.playback == nil {
		return 0, false
	}
	return r.playback.PositionAt(now), true
}
