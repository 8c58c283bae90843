package observability

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// MonitoringStats is a point-in-time view of the chat server counters.
type MonitoringStats struct {
	StartedAt     time.Time `json:"started_at"`
	Accepted      uint64    `json:"accepted"`
	Handshakes    uint64    `json:"handshakes"`
	Broadcasts    uint64    `json:"broadcasts"`
	Whispers      uint64    `json:"whispers"`
	WhisperMisses uint64    `json:"whisper_misses"`
	Dropped       uint64    `json:"dropped"`
	Censored      uint64    `json:"censored"`
	Sessions      int       `json:"sessions"`

	AllocMemMb uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// MonitoringManager counts what happens on the server.
// Every method is safe on a nil receiver so components can run unmonitored.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time

	accepted      atomic.Uint64
	handshakes    atomic.Uint64
	broadcasts    atomic.Uint64
	whispers      atomic.Uint64
	whisperMisses atomic.Uint64
	dropped       atomic.Uint64
	censored      atomic.Uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, startedAt: time.Now().UTC()}
}

func (mm *MonitoringManager) IncrAccepted() {
	if mm != nil {
		mm.accepted.Add(1)
	}
}

func (mm *MonitoringManager) IncrHandshakes() {
	if mm != nil {
		mm.handshakes.Add(1)
	}
}

func (mm *MonitoringManager) IncrBroadcasts() {
	if mm != nil {
		mm.broadcasts.Add(1)
	}
}

func (mm *MonitoringManager) IncrWhispers() {
	if mm != nil {
		mm.whispers.Add(1)
	}
}

func (mm *MonitoringManager) IncrWhisperMisses() {
	if mm != nil {
		mm.whisperMisses.Add(1)
	}
}

func (mm *MonitoringManager) AddDropped(n int) {
	if mm != nil && n > 0 {
		mm.dropped.Add(uint64(n))
	}
}

func (mm *MonitoringManager) IncrCensored() {
	if mm != nil {
		mm.censored.Add(1)
	}
}

// GetLatest reads every counter plus Go runtime figures.
// sessions is supplied by the caller since the registry owns it.
func (mm *MonitoringManager) GetLatest(sessions int) MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats := MonitoringStats{
		Sessions:   sessions,
		AllocMemMb: m.Alloc / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if mm == nil {
		return stats
	}
	stats.StartedAt = mm.startedAt
	stats.Accepted = mm.accepted.Load()
	stats.Handshakes = mm.handshakes.Load()
	stats.Broadcasts = mm.broadcasts.Load()
	stats.Whispers = mm.whispers.Load()
	stats.WhisperMisses = mm.whisperMisses.Load()
	stats.Dropped = mm.dropped.Load()
	stats.Censored = mm.censored.Load()
	mm.log.Debug("Stats read", "sessions", sessions, "accepted", stats.Accepted, "dropped", stats.Dropped)
	return stats
}
