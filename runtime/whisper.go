package runtime

import (
	"line-chat/contract"
	"line-chat/domain"
	"line-chat/observability"
	"log/slog"
)

// WhisperRouter delivers a private line to one participant, by name.
type WhisperRouter struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
}

func NewWhisperRouter(log *slog.Logger, registry contract.IRegistry, monitoring *observability.MonitoringManager) *WhisperRouter {
	return &WhisperRouter{log: log, registry: registry, monitoring: monitoring}
}

// Whisper sends the same line to the target and back to the sender so the
// sender sees what was delivered. An unknown target only produces a notice
// to the sender. A peer that cannot be written to is dropped, nothing is
// retried.
func (w *WhisperRouter) Whisper(sender contract.Peer, senderName, targetName, text string) {
	target, ok := w.registry.LookupByName(targetName)
	if !ok {
		w.monitoring.IncrWhisperMisses()
		w.log.Debug("Whisper target not found", "session_id", sender.ID(), "target", targetName)
		if err := sender.WriteLine(domain.TargetNotFoundNotice(targetName)); err != nil {
			w.dropped(sender)
		}
		return
	}

	w.monitoring.IncrWhispers()
	line := domain.WhisperLine(senderName, targetName, text)
	if err := target.WriteLine(line); err != nil {
		w.dropped(target)
	}
	if err := sender.WriteLine(line); err != nil {
		w.dropped(sender)
	}
}

func (w *WhisperRouter) dropped(peer contract.Peer) {
	drop(w.log, w.registry, peer)
	w.monitoring.AddDropped(1)
}
