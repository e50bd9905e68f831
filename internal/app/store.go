package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
	"github.com/avelex/watchparty/internal/metrics"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	HasVideo    bool          `json:"has_video"`
	OpenStreams int           `json:"open_streams"`
}

// RoomStore owns the set of live rooms. Rooms are created lazily on first
// join and deleted when the last member leaves; all other room state is
// serialized by the per-room lock inside core.Room.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomID]*core.Room)}
}

// Join registers the session in its room, creating the room on first join.
// A join racing the destruction of the same room retries against a fresh
// room object, so a member is never added to an evicted room.
func (s *RoomStore) Join(ms core.MemberSession) (*core.Room, error) {
	roomID := ms.Meta().Room

	for {
		room := s.getOrCreate(roomID)
		if err := room.AddMember(ms); err != nil {
			s.dropIfEmpty(room)
			return nil, err
		}

		s.mu.RLock()
		current, live := s.rooms[roomID]
		s.mu.RUnlock()
		if live && current == room {
			metrics.SessionsActive.Inc()
			return room, nil
		}
		room.RemoveMember(ms.Meta().ID)
	}
}

func (s *RoomStore) getOrCreate(roomID domain.RoomID) *core.Room {
	s.mu.RLock()
	room, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return room
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok = s.rooms[roomID]; ok {
		return room
	}
	room = core.NewRoom(roomID)
	s.rooms[roomID] = room
	metrics.RoomsActive.Set(float64(len(s.rooms)))
	log.Info().Str("module", "app.store").Str("room", string(roomID)).Msg("room created")
	return room
}

// Leave removes the session from its room. Reports whether the room was
// destroyed; callers run the teardown cascade (peer-left broadcast, host
// playback teardown, stream closure) around this call.
func (s *RoomStore) Leave(room *core.Room, sid domain.SessionID) (destroyed bool) {
	if empty := room.RemoveMember(sid); empty {
		destroyed = s.dropIfEmpty(room)
	}
	metrics.SessionsActive.Dec()
	return destroyed
}

func (s *RoomStore) dropIfEmpty(room *core.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.MemberCount() != 0 {
		return false
	}
	if current, ok := s.rooms[room.ID()]; !ok || current != room {
		return false
	}
	delete(s.rooms, room.ID())
	metrics.RoomsActive.Set(float64(len(s.rooms)))
	log.Info().Str("module", "app.store").Str("room", string(room.ID())).Msg("room destroyed")
	return true
}

func (s *RoomStore) Get(id domain.RoomID) (*core.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *RoomStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, room := range s.rooms {
		n += room.MemberCount()
	}
	return n
}

func (s *RoomStore) Snapshot() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for id, room := range s.rooms {
		_, hasVideo := room.PlaybackSnapshot()
		out = append(out, RoomInfo{
			ID:          id,
			MemberCount: room.MemberCount(),
			HasVideo:    hasVideo,
			OpenStreams: room.Streams().Len(),
		})
	}
	return out
}

// ReferencedAssets reports every asset path referenced by a live playback
// state; the janitor must not touch these.
func (s *RoomStore) ReferencedAssets() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.rooms))
	for _, room := range s.rooms {
		if ps, ok := room.PlaybackSnapshot(); ok {
			out[ps.AssetPath] = struct{}{}
		}
	}
	return out
}
