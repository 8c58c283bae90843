package runtime

import (
	"line-chat/contract"
	"line-chat/domain"
	"line-chat/observability"
	"log/slog"
)

// Broadcaster delivers one line to every registered peer.
// It writes synchronously from the caller's goroutine: a slow peer delays
// the ones after it in the snapshot, bounded by the peer write timeout.
type Broadcaster struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, monitoring *observability.MonitoringManager) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, monitoring: monitoring}
}

// Broadcast writes text to a snapshot of the registry.
// Peers whose write failed are removed and closed once the pass is over,
// so the iteration never races with its own cleanup.
func (b *Broadcaster) Broadcast(text string) {
	b.monitoring.IncrBroadcasts()

	var failed []contract.Member
	for _, member := range b.registry.Snapshot() {
		if err := member.Peer.WriteLine(text); err != nil {
			b.log.Debug("Broadcast write failed",
				"session_id", member.Peer.ID(),
				"name", member.Name,
				"error", err)
			failed = append(failed, member)
		}
	}

	for _, member := range failed {
		drop(b.log, b.registry, member.Peer)
	}
	b.monitoring.AddDropped(len(failed))
}

// drop isolates a peer that could not be written to.
func drop(log *slog.Logger, registry contract.IRegistry, peer contract.Peer) {
	name, _ := registry.Remove(peer)
	_ = peer.Close()
	log.Info("Peer dropped",
		"session_id", peer.ID(),
		"name", name,
		"reason", domain.ReasonUnreachable)
}
