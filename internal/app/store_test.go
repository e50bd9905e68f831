package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
)

type fakeConn struct {
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.frames = append(f.frames, fr)
	return nil
}
func (f *fakeConn) Close() {}

func member(t *testing.T, sid, name, room string, host bool) core.MemberSession {
	t.Helper()
	meta, err := domain.NewSession(domain.SessionID(sid), name, domain.RoomID(room), host)
	require.NoError(t, err)
	return core.NewMemberSession(meta, &fakeConn{})
}

func TestJoinCreatesRoomLazily(t *testing.T) {
	store := NewRoomStore()
	require.Equal(t, 0, store.Count())

	room, err := store.Join(member(t, "s1", "alice", "movie-night", true))
	require.NoError(t, err)
	require.Equal(t, 1, store.Count())
	require.Equal(t, domain.RoomID("movie-night"), room.ID())

	again, ok := store.Get("movie-night")
	require.True(t, ok)
	require.Same(t, room, again)
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	store := NewRoomStore()
	room, err := store.Join(member(t, "s1", "alice", "movie-night", true))
	require.NoError(t, err)
	_, err = store.Join(member(t, "s2", "bob", "movie-night", false))
	require.NoError(t, err)

	require.False(t, store.Leave(room, "s2"))
	require.Equal(t, 1, store.Count())

	require.True(t, store.Leave(room, "s1"))
	require.Equal(t, 0, store.Count())
	_, ok := store.Get("movie-night")
	require.False(t, ok)
}

func TestJoinDuplicateNameDoesNotLeakRoom(t *testing.T) {
	store := NewRoomStore()
	_, err := store.Join(member(t, "s1", "alice", "fresh", true))
	require.NoError(t, err)
	_, err = store.Join(member(t, "s2", "alice", "fresh", false))
	require.ErrorIs(t, err, core.ErrNameTaken)
	require.Equal(t, 1, store.Count())
}

func TestReferencedAssets(t *testing.T) {
	store := NewRoomStore()
	room, err := store.Join(member(t, "s1", "alice", "movie-night", true))
	require.NoError(t, err)

	require.Empty(t, store.ReferencedAssets())

	pb := NewPlayback(store, nil)
	_, err = pb.AssetReady("movie-night", "/tmp/assets/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	refs := store.ReferencedAssets()
	require.Contains(t, refs, "/tmp/assets/a.mp4")

	_, ok := pb.Stop("movie-night", "alice")
	require.True(t, ok)
	require.Empty(t, store.ReferencedAssets())
	_ = room
}
