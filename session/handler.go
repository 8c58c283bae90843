// Package session runs the per-connection chat state machine:
// handshake, message loop, teardown.
package session

import (
	"context"
	stderrors "errors"
	"io"
	"line-chat/contract"
	"line-chat/domain"
	"line-chat/errors"
	"line-chat/observability"
	"line-chat/transport"
	"log/slog"
)

// Conn is what a session needs from its connection: the peer side used by
// the registry plus the blocking line reader.
type Conn interface {
	contract.Peer
	ReadLine() (string, error)
}

type Handler struct {
	log         *slog.Logger
	registry    contract.IRegistry
	broadcaster contract.IBroadcaster
	whisper     contract.IWhisperRouter
	censor      contract.ICensor
	monitoring  *observability.MonitoringManager
	quitCommand string
}

// NewHandler wires a session handler. censor and monitoring may be nil.
func NewHandler(
	log *slog.Logger,
	registry contract.IRegistry,
	broadcaster contract.IBroadcaster,
	whisper contract.IWhisperRouter,
	censor contract.ICensor,
	monitoring *observability.MonitoringManager,
	quitCommand string,
) *Handler {
	return &Handler{
		log:         log,
		registry:    registry,
		broadcaster: broadcaster,
		whisper:     whisper,
		censor:      censor,
		monitoring:  monitoring,
		quitCommand: quitCommand,
	}
}

// session is the state carried by one Serve call.
type session struct {
	conn  Conn
	log   *slog.Logger
	state domain.SessionState
	name  string
}

// Serve blocks until the connection ends, whatever the cause.
// Teardown runs exactly once on the way out: the transport is closed, the
// registry entry removed and the departure announced when a name had been
// registered. ctx only tells the session the server is shutting down, in
// which case nobody is left to hear the departure.
func (h *Handler) Serve(ctx context.Context, conn Conn) {
	s := &session{
		conn:  conn,
		log:   h.log.With("session_id", conn.ID(), "remote_addr", conn.RemoteAddr()),
		state: domain.AwaitingName,
	}
	reason := domain.ReasonError
	defer func() { h.teardown(ctx, s, reason) }()

	s.log.Debug("Session started")
	if reason = h.handshake(ctx, s); reason != "" {
		return
	}
	reason = h.loop(ctx, s)
}

// handshake reads the display name and registers it.
// An empty reason means the session is now active.
func (h *Handler) handshake(ctx context.Context, s *session) domain.CloseReason {
	name, err := s.conn.ReadLine()
	if err != nil {
		return closeReason(ctx, err)
	}
	if name == "" {
		s.log.Debug("Handshake rejected", "error", errors.ErrEmptyName)
		return domain.ReasonNoName
	}
	if err := h.registry.Add(s.conn, name); err != nil {
		s.log.Error("Unable to register session", "error", err)
		return domain.ReasonError
	}

	s.name = name
	s.state = domain.Active
	s.log = s.log.With("name", name)
	h.monitoring.IncrHandshakes()
	s.log.Info("Participant joined")
	h.broadcaster.Broadcast(domain.JoinedNotice(name))
	return ""
}

func (h *Handler) loop(ctx context.Context, s *session) domain.CloseReason {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return closeReason(ctx, err)
		}

		switch cmd := domain.ParseCommand(line, h.quitCommand).(type) {
		case domain.QuitCommand:
			if err := s.conn.WriteLine(domain.FarewellNotice); err != nil {
				s.log.Debug("Farewell not delivered", "error", err)
			}
			return domain.ReasonQuit
		case domain.WhisperCommandRequest:
			h.whisper.Whisper(s.conn, s.name, cmd.Target, cmd.Text)
		case domain.WhisperUsageCommand:
			if err := s.conn.WriteLine(domain.UsageNotice); err != nil {
				return closeReason(ctx, err)
			}
		case domain.ChatCommand:
			h.broadcaster.Broadcast(domain.ChatLine(s.name, h.moderate(s, cmd.Text)))
		case domain.EmptyCommand:
		}
	}
}

func (h *Handler) moderate(s *session, text string) string {
	if h.censor == nil {
		return text
	}
	censored, found := h.censor.Censor(text)
	if len(found) > 0 {
		h.monitoring.IncrCensored()
		s.log.Info("Chat line censored", "words", found)
	}
	return censored
}

func (h *Handler) teardown(ctx context.Context, s *session, reason domain.CloseReason) {
	s.state = domain.Closing

	if err := s.conn.Close(); err != nil && !transport.IsClosed(err) {
		s.log.Debug("Close failed", "error", err)
	}
	// A peer already dropped by a failed write is gone from the registry:
	// only the session that removes the entry announces the departure.
	name, registered := h.registry.Remove(s.conn)
	if registered && ctx.Err() == nil {
		h.broadcaster.Broadcast(domain.LeftNotice(name))
	}

	s.state = domain.Closed
	s.log.Info("Session closed", "reason", reason, "registered", registered)
}

// closeReason maps the error that ended a read to the reason logged.
func closeReason(ctx context.Context, err error) domain.CloseReason {
	switch {
	case ctx.Err() != nil:
		return domain.ReasonShutdown
	case stderrors.Is(err, io.EOF):
		return domain.ReasonEOF
	case transport.IsTimeout(err):
		return domain.ReasonIdle
	case transport.IsClosed(err):
		return domain.ReasonUnreachable
	default:
		return domain.ReasonError
	}
}
