//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Peer is the write side of one client connection.
// WriteLine must be safe for concurrent use and Close idempotent.
type Peer interface {
	ID() string
	RemoteAddr() string
	WriteLine(text string) error
	Close() error
}

// Member is one registry entry.
type Member struct {
	Peer     Peer
	Name     string
	JoinedAt time.Time
}

type IRegistry interface {
	Add(peer Peer, name string) error
	Remove(peer Peer) (string, bool)
	LookupByName(name string) (Peer, bool)
	Snapshot() []Member
	Clear() []Member
	Len() int
}

type IBroadcaster interface {
	Broadcast(text string)
}

type IWhisperRouter interface {
	Whisper(sender Peer, senderName, targetName, text string)
}

// ICensor masks forbidden words and reports which ones were found.
type ICensor interface {
	Censor(original string) (string, []string)
}
