package domain

import "time"

// PlaybackState is the authoritative shared playback clock for a room.
// Only the session whose name equals HostName may mutate it.
type PlaybackState struct {
	AssetPath   string
	FileName    string
	ContentType string
	IsPlaying   bool
	Position    float64 // seconds
	HostName    string
	LastUpdate  time.Time
}

func NewPlaybackState(assetPath, fileName, hostName string, now time.Time) *PlaybackState {
	return &PlaybackState{
		AssetPath:  assetPath,
		FileName:   fileName,
		HostName:   hostName,
		LastUpdate: now,
	}
}

// PositionAt extrapolates the playback clock: while playing, the effective
// position advances with wall time since the last host update. A paused
// state reports Position verbatim.
func (p *PlaybackState) PositionAt(now time.Time) float64 {
	if !p.IsPlaying {
		return p.Position
	}
	pos := p.Position + now.Sub(p.LastUpdate).Seconds()
	if pos < 0 {
		return 0
	}
	return pos
}
