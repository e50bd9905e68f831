package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	closes atomic.Int32
}

func (c *countingCloser) Read(p []byte) (int, error) { return 0, nil }
func (c *countingCloser) Close() error {
	c.closes.Add(1)
	return nil
}

func newPartyRoom(t *testing.T, store *RoomStore) {
	t.Helper()
	_, err := store.Join(member(t, "s1", "alice", "party", true))
	require.NoError(t, err)
	_, err = store.Join(member(t, "s2", "bob", "party", false))
	require.NoError(t, err)
}

func TestNonHostControlIsSilentNoOp(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	_, ok := pb.Play("party", "bob", 30)
	require.False(t, ok)

	state := pb.Query("party")
	require.True(t, state.HasVideo)
	require.False(t, state.IsPlaying)
	require.Equal(t, 0.0, state.CurrentTime)
}

func TestQueryExtrapolatesWhilePlaying(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	pb := NewPlayback(store, nil, WithPlaybackClock(clock))
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	_, ok := pb.Play("party", "alice", 10)
	require.True(t, ok)

	now = now.Add(5 * time.Second)
	state := pb.Query("party")
	require.InDelta(t, 15.0, state.CurrentTime, 0.001)
	require.True(t, state.IsPlaying)
	require.Equal(t, "alice", state.Host)

	_, ok = pb.Pause("party", "alice", 15)
	require.True(t, ok)
	now = now.Add(time.Hour)
	state = pb.Query("party")
	require.Equal(t, 15.0, state.CurrentTime)
	require.False(t, state.IsPlaying)
}

func TestSeekKeepsPlayingFlag(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	_, ok := pb.Play("party", "alice", 10)
	require.True(t, ok)
	st, ok := pb.Seek("party", "alice", 200)
	require.True(t, ok)
	require.True(t, st.IsPlaying)
	require.Equal(t, 200.0, st.Position)

	// Negative positions clamp to the start.
	st, ok = pb.Seek("party", "alice", -3)
	require.True(t, ok)
	require.Equal(t, 0.0, st.Position)
}

func TestQueryWithoutAssetReportsNoVideo(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)

	state := pb.Query("party")
	require.False(t, state.HasVideo)

	state = pb.Query("no-such-room")
	require.False(t, state.HasVideo)
}

func TestStopRequiresHost(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	_, ok := pb.Stop("party", "bob")
	require.False(t, ok)
	require.True(t, pb.Query("party").HasVideo)

	old, ok := pb.Stop("party", "alice")
	require.True(t, ok)
	require.Equal(t, "a.mp4", old.FileName)
	require.False(t, pb.Query("party").HasVideo)
}

func TestHostDisconnectTearsDownPlaybackAndStreams(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)

	room, ok := store.Get("party")
	require.True(t, ok)
	rc := &countingCloser{}
	room.Streams().Track(rc)

	// A non-host leaving does not touch playback.
	_, torn := pb.HostDisconnected(room, "bob")
	require.False(t, torn)
	require.True(t, pb.Query("party").HasVideo)

	old, torn := pb.HostDisconnected(room, "alice")
	require.True(t, torn)
	require.Equal(t, "alice", old.HostName)
	require.False(t, pb.Query("party").HasVideo)
	require.Equal(t, 0, room.Streams().Len())
	require.Equal(t, int32(1), rc.closes.Load())
}

func TestReuploadReplacesAsset(t *testing.T) {
	store := NewRoomStore()
	newPartyRoom(t, store)
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("party", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.NoError(t, err)
	_, err = pb.AssetReady("party", "/tmp/b.mkv", "b.mkv", "video/x-matroska", "bob")
	require.NoError(t, err)

	state := pb.Query("party")
	require.Equal(t, "b.mkv", state.FileName)
	require.Equal(t, "bob", state.Host)
}

func TestAssetReadyUnknownRoom(t *testing.T) {
	store := NewRoomStore()
	pb := NewPlayback(store, nil)
	_, err := pb.AssetReady("ghost", "/tmp/a.mp4", "a.mp4", "video/mp4", "alice")
	require.ErrorIs(t, err, ErrRoomNotFound)
}
