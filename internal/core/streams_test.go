package core

import (
	"sync/atomic"
	"testing"

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

func TestStreamHandleClosesExactlyOnce(t *testing.T) {
	set := NewStreamSet("room-1")
	rc := &countingCloser{}
	h := set.Track(rc)
	require.Equal(t, 1, set.Len())

	h.Close()
	h.Close()
	require.Equal(t, int32(1), rc.closes.Load())
	require.Equal(t, 0, set.Len())
}

func TestCloseAllIsIdempotent(t *testing.T) {
	set := NewStreamSet("room-1")
	a := &countingCloser{}
	b := &countingCloser{}
	set.Track(a)
	set.Track(b)

	set.CloseAll()
	require.Equal(t, 0, set.Len())
	require.Equal(t, int32(1), a.closes.Load())
	require.Equal(t, int32(1), b.closes.Load())

	// Closing an already-empty set is a no-op.
	set.CloseAll()
	require.Equal(t, int32(1), a.closes.Load())
}

func TestCloseAllRacesNormalCloseSafely(t *testing.T) {
	set := NewStreamSet("room-1")
	rc := &countingCloser{}
	h := set.Track(rc)

	done := make(chan struct{})
	go func() {
		h.Close()
		close(done)
	}()
	set.CloseAll()
	<-done

	require.Equal(t, int32(1), rc.closes.Load())
	require.Equal(t, 0, set.Len())
}
