package server

import (
	"context"
	"io"
	"line-chat/codec"
	"line-chat/domain"
	"line-chat/errors"
	"line-chat/observability"
	"line-chat/runtime"
	"line-chat/session"
	"line-chat/transport"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const quit = "/quit"

type recordingReporter struct {
	mu     sync.Mutex
	states []bool
}

func (r *recordingReporter) SetServing(serving bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, serving)
}

func (r *recordingReporter) get() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

type fixture struct {
	server   *Server
	registry *runtime.Registry
	reporter *recordingReporter
	cancel   context.CancelFunc
	served   chan error
}

func startServer(t *testing.T, conn transport.Options) *fixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	handler := session.NewHandler(log, registry,
		runtime.NewBroadcaster(log, registry, monitoring),
		runtime.NewWhisperRouter(log, registry, monitoring),
		nil, monitoring, quit)
	reporter := &recordingReporter{}
	server := NewServer(log, Options{Addr: "127.0.0.1:0", Conn: conn, ShutdownTimeout: 2 * time.Second},
		registry, handler, monitoring).WithReporter(reporter)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, server.Listen(ctx))
	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx) }()

	f := &fixture{server: server, registry: registry, reporter: reporter, cancel: cancel, served: served}
	t.Cleanup(func() { f.stop(t) })
	return f
}

// stop cancels the server and waits for Serve to return. Safe to call twice.
func (f *fixture) stop(t *testing.T) {
	t.Helper()
	f.cancel()
	select {
	case err, ok := <-f.served:
		if ok {
			require.NoError(t, err)
			close(f.served)
		}
	case <-time.After(5 * time.Second):
		require.Fail(t, "server did not stop")
	}
}

type chatter struct {
	t      *testing.T
	conn   net.Conn
	reader *codec.LineReader
}

func (f *fixture) connect(t *testing.T) *chatter {
	t.Helper()
	conn, err := net.Dial("tcp", f.server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &chatter{t: t, conn: conn, reader: codec.NewLineReader(conn, codec.DefaultMaxLineLength)}
}

func (f *fixture) join(t *testing.T, name string) *chatter {
	c := f.connect(t)
	c.say(name)
	c.hears(domain.JoinedNotice(name))
	return c
}

func (c *chatter) say(line string) {
	c.t.Helper()
	require.NoError(c.t, codec.WriteLine(c.conn, line))
}

func (c *chatter) hears(line string) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	got, err := c.reader.ReadLine()
	require.NoError(c.t, err)
	require.Equal(c.t, line, got)
}

func (c *chatter) closed() {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err := c.reader.ReadLine()
	require.ErrorIs(c.t, err, io.EOF)
}

func TestServer_Alice_And_Bob(t *testing.T) {
	req := require.New(t)
	f := startServer(t, transport.Options{})

	// Given Alice and Bob joined, and Carol watches
	alice := f.join(t, "Alice")
	bob := f.join(t, "Bob")
	alice.hears("Bob joined")
	carol := f.join(t, "Carol")
	alice.hears("Carol joined")
	bob.hears("Carol joined")

	// When Alice says hello, everybody hears it
	alice.say("hello")
	alice.hears("Alice> hello")
	bob.hears("Alice> hello")
	carol.hears("Alice> hello")

	// When Bob whispers to Alice, only both of them see it
	bob.say("/w Alice hi")
	alice.hears("[whisper] Bob → Alice: hi")
	bob.hears("[whisper] Bob → Alice: hi")

	// When Alice quits
	alice.say(quit)
	alice.hears(domain.FarewellNotice)
	alice.closed()

	// Then Bob and Carol are told, and Carol never saw the whisper
	bob.hears("Alice left")
	carol.hears("Alice left")
	req.Eventually(func() bool { return f.registry.Len() == 2 }, time.Second, 10*time.Millisecond)
}

func TestServer_Registry_Size_Follows_Joins_And_Leaves(t *testing.T) {
	req := require.New(t)
	f := startServer(t, transport.Options{})

	const total = 20
	chatters := make([]*chatter, total)
	for i := range chatters {
		c := f.connect(t)
		c.say("user")
		chatters[i] = c
	}
	req.Eventually(func() bool { return f.registry.Len() == total }, 3*time.Second, 10*time.Millisecond)

	// When a third of them hang up without quitting
	for i := 0; i < total; i += 3 {
		_ = chatters[i].conn.Close()
	}

	// Then the registry converges to the survivors
	req.Eventually(func() bool { return f.registry.Len() == total-7 }, 3*time.Second, 10*time.Millisecond)
}

func TestServer_Shutdown_Closes_Everyone(t *testing.T) {
	req := require.New(t)
	f := startServer(t, transport.Options{})

	alice := f.join(t, "Alice")
	bob := f.join(t, "Bob")
	alice.hears("Bob joined")
	// A connection that never sends its name
	silent := f.connect(t)

	// When the server shuts down
	f.stop(t)

	// Then every connection is closed without a departure notice
	alice.closed()
	bob.closed()
	silent.closed()
	req.Zero(f.registry.Len())
	req.Equal([]bool{true, false}, f.reporter.get())

	// And nobody can connect anymore
	_, err := net.DialTimeout("tcp", f.server.Addr().String(), 500*time.Millisecond)
	req.Error(err)
}

func TestServer_Idle_Connection_Is_Dropped(t *testing.T) {
	req := require.New(t)
	f := startServer(t, transport.Options{IdleTimeout: 200 * time.Millisecond})

	alice := f.join(t, "Alice")
	alice.closed()
	req.Eventually(func() bool { return f.registry.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_Serve_Without_Listen(t *testing.T) {
	server := NewServer(logs.GetLoggerFromLevel(slog.LevelDebug), Options{}, runtime.NewRegistry(), nil, nil)

	require.Nil(t, server.Addr())
	require.ErrorIs(t, server.Serve(context.Background()), errors.ErrServerNotListening)
}

func TestServer_Listen_On_Busy_Port(t *testing.T) {
	req := require.New(t)
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	defer func() { _ = busy.Close() }()

	server := NewServer(logs.GetLoggerFromLevel(slog.LevelDebug), Options{Addr: busy.Addr().String()},
		runtime.NewRegistry(), nil, nil)

	req.Error(server.Listen(context.Background()))
}

func TestNextDelay(t *testing.T) {
	req := require.New(t)
	req.Equal(minAcceptDelay, nextDelay(0))
	req.Equal(2*minAcceptDelay, nextDelay(minAcceptDelay))
	req.Equal(maxAcceptDelay, nextDelay(maxAcceptDelay))
}
