// Package domain contains core concepts of the chat system.
// This file defines the lifecycle of a participant session.
// No runtime, network, or UI logic should be added here.
package domain

// SessionState is the position of a session in its lifecycle.
// A session only moves forward: AwaitingName -> Active -> Closing -> Closed.
type SessionState int

const (
	AwaitingName SessionState = iota
	Active
	Closing
	Closed
)

func (s SessionState) String() string {
	switch s {
	case AwaitingName:
		return "awaiting_name"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records which trigger moved a session to Closing.
type CloseReason string

const (
	ReasonQuit        CloseReason = "quit"
	ReasonEOF         CloseReason = "eof"
	ReasonIdle        CloseReason = "idle_timeout"
	ReasonError       CloseReason = "error"
	ReasonNoName      CloseReason = "no_name"
	ReasonShutdown    CloseReason = "shutdown"
	ReasonUnreachable CloseReason = "unreachable"
)
