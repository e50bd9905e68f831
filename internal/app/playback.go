package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
)

// Stop reasons carried on the ended notice.
const (
	StopReasonStopped  = "stopped"
	StopReasonHostLeft = "host-left"
)

// StateSync is the answer to a state query, with the position extrapolated
// from the playback clock.
type StateSync struct {
	HasVideo    bool    `json:"hasVideo"`
	FileName    string  `json:"fileName,omitempty"`
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime"`
	Host        string  `json:"host,omitempty"`
}

// Playback coordinates the per-room authoritative playback clock. Host
// identity is validated under the room lock; mutation requests from any
// other identity are silent no-ops.
type Playback struct {
	store   *RoomStore
	janitor *Janitor
	now     func() time.Time
}

type PlaybackOption func(*Playback)

// WithPlaybackClock overrides the wall clock, for tests.
func WithPlaybackClock(now func() time.Time) PlaybackOption {
	return func(p *Playback) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPlayback wires the coordinator. A nil janitor disables reclamation
// (tests); teardown still closes streams.
func NewPlayback(store *RoomStore, janitor *Janitor, opts ...PlaybackOption) *Playback {
	p := &Playback{store: store, janitor: janitor, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AssetReady installs a fresh playback state after a successful upload.
// Any previous asset for the room is torn down and handed to the janitor.
func (p *Playback) AssetReady(roomID domain.RoomID, assetPath, fileName, contentType, hostName string) (domain.PlaybackState, error) {
	room, ok := p.store.Get(roomID)
	if !ok {
		return domain.PlaybackState{}, ErrRoomNotFound
	}
	if old, had := room.TakePlayback(); had {
		room.Streams().CloseAll()
		p.reclaim(old.AssetPath)
	}
	ps := domain.NewPlaybackState(assetPath, fileName, hostName, p.now())
	ps.ContentType = contentType
	room.SetPlayback(ps)
	log.Info().Str("module", "app.playback").Str("room", string(roomID)).Str("file", fileName).Str("host", hostName).Msg("asset ready")
	return *ps, nil
}

// Play starts the clock at position. Valid only for the host of a loaded
// asset; otherwise a silent no-op.
func (p *Playback) Play(roomID domain.RoomID, requester string, position float64) (domain.PlaybackState, bool) {
	return p.update(roomID, requester, func(ps *domain.PlaybackState) {
		ps.IsPlaying = true
		ps.Position = clampPosition(position)
	})
}

// Pause freezes the clock at position.
func (p *Playback) Pause(roomID domain.RoomID, requester string, position float64) (domain.PlaybackState, bool) {
	return p.update(roomID, requester, func(ps *domain.PlaybackState) {
		ps.IsPlaying = false
		ps.Position = clampPosition(position)
	})
}

// Seek moves the clock without changing the playing flag.
func (p *Playback) Seek(roomID domain.RoomID, requester string, position float64) (domain.PlaybackState, bool) {
	return p.update(roomID, requester, func(ps *domain.PlaybackState) {
		ps.Position = clampPosition(position)
	})
}

func (p *Playback) update(roomID domain.RoomID, requester string, fn func(*domain.PlaybackState)) (domain.PlaybackState, bool) {
	room, ok := p.store.Get(roomID)
	if !ok {
		return domain.PlaybackState{}, false
	}
	now := p.now()
	return room.UpdatePlayback(requester, func(ps *domain.PlaybackState) {
		fn(ps)
		ps.LastUpdate = now
	})
}

// Query answers "where is playback right now". A room without an asset
// yields an explicit no-video result, not an error.
func (p *Playback) Query(roomID domain.RoomID) StateSync {
	room, ok := p.store.Get(roomID)
	if !ok {
		return StateSync{}
	}
	ps, ok := room.PlaybackSnapshot()
	if !ok {
		return StateSync{}
	}
	return StateSync{
		HasVideo:    true,
		FileName:    ps.FileName,
		IsPlaying:   ps.IsPlaying,
		CurrentTime: ps.PositionAt(p.now()),
		Host:        ps.HostName,
	}
}

// Stop removes the playback state on explicit host request, forces every
// open stream closed and hands the asset to the janitor.
func (p *Playback) Stop(roomID domain.RoomID, requester string) (domain.PlaybackState, bool) {
	room, ok := p.store.Get(roomID)
	if !ok {
		return domain.PlaybackState{}, false
	}
	old, ok := room.ClearPlayback(requester)
	if !ok {
		return domain.PlaybackState{}, false
	}
	p.teardown(room, old)
	return old, true
}

// HostDisconnected is the internal stop path: when the leaving session is
// the host of the room's asset, playback is torn down exactly as an
// explicit stop would.
func (p *Playback) HostDisconnected(room *core.Room, name string) (domain.PlaybackState, bool) {
	old, ok := room.ClearPlayback(name)
	if !ok {
		return domain.PlaybackState{}, false
	}
	p.teardown(room, old)
	return old, true
}

// TeardownRoom reclaims whatever the destroyed room still owns.
func (p *Playback) TeardownRoom(room *core.Room) {
	if old, had := room.TakePlayback(); had {
		p.teardown(room, old)
		return
	}
	room.Streams().CloseAll()
}

func (p *Playback) teardown(room *core.Room, old domain.PlaybackState) {
	room.Streams().CloseAll()
	p.reclaim(old.AssetPath)
	log.Info().Str("module", "app.playback").Str("room", string(room.ID())).Str("file", old.FileName).Msg("playback torn down")
}

func (p *Playback) reclaim(path string) {
	if p.janitor != nil && path != "" {
		p.janitor.ReclaimAsset(path)
	}
}

func clampPosition(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	return pos
}
