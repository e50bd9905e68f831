package core

import (
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/domain"
)

// StreamHandle is one open partial read of a room's asset. Close is
// idempotent and may be called from the serving goroutine (end of data,
// I/O error, client abort) or from a forced CloseAll during teardown;
// whichever comes first closes the underlying reader exactly once.
type StreamHandle struct {
	id   string
	rc   io.ReadCloser
	set  *StreamSet
	once sync.Once
}

func (h *StreamHandle) ID() string { return h.id }

func (h *StreamHandle) Read(p []byte) (int, error) { return h.rc.Read(p) }

func (h *StreamHandle) Close() {
	h.once.Do(func() {
		_ = h.rc.Close()
		h.set.remove(h.id)
	})
}

// StreamSet tracks the open stream handles of one room so teardown can
// guarantee the backing asset file has no readers before deletion.
type StreamSet struct {
	room domain.RoomID

	mu      sync.Mutex
	handles map[string]*StreamHandle
}

func NewStreamSet(room domain.RoomID) *StreamSet {
	return &StreamSet{room: room, handles: make(map[string]*StreamHandle)}
}

// Track registers rc before any bytes are delivered from it.
func (s *StreamSet) Track(rc io.ReadCloser) *StreamHandle {
	h := &StreamHandle{id: uuid.NewString(), rc: rc, set: s}
	s.mu.Lock()
	s.handles[h.id] = h
	s.mu.Unlock()
	return h
}

func (s *StreamSet) remove(id string) {
	s.mu.Lock()
	delete(s.handles, id)
	s.mu.Unlock()
}

func (s *StreamSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// CloseAll forcibly closes every tracked handle. Idempotent: closing an
// already-empty set is a no-op.
func (s *StreamSet) CloseAll() {
	s.mu.Lock()
	open := make([]*StreamHandle, 0, len(s.handles))
	for _, h := range s.handles {
		open = append(open, h)
	}
	s.mu.Unlock()

	for _, h := range open {
		h.Close()
	}
	if len(open) > 0 {
		log.Info().Str("module", "core.streams").Str("room", string(s.room)).Int("closed", len(open)).Msg("forced stream closure")
	}
}
