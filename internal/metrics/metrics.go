// Package metrics exposes process-level counters for the diagnostics
// surface. Nothing in the core reads them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_rooms_active",
		Help: "Number of live rooms.",
	})
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_sessions_active",
		Help: "Number of connected sessions across all rooms.",
	})
	StreamsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_streams_open",
		Help: "Open media stream handles.",
	})
	BytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchparty_bytes_streamed_total",
		Help: "Media bytes delivered to clients.",
	})
	SignalsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchparty_signals_relayed_total",
		Help: "Peer negotiation payloads relayed.",
	})
	AssetsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchparty_assets_reclaimed_total",
		Help: "Media files deleted by the janitor.",
	})
)
