// Package server owns the listening socket of the chat server: it accepts
// connections, hands each one to its own session goroutine and coordinates
// shutdown.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"line-chat/contract"
	"line-chat/errors"
	"line-chat/observability"
	"line-chat/session"
	"line-chat/transport"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// SessionHandler serves one connection until it ends.
type SessionHandler interface {
	Serve(ctx context.Context, conn session.Conn)
}

// ServingReporter is told when the accept loop starts and stops.
type ServingReporter interface {
	SetServing(serving bool)
}

type Options struct {
	Addr            string
	Conn            transport.Options
	ShutdownTimeout time.Duration
}

type Server struct {
	log        *slog.Logger
	opts       Options
	registry   contract.IRegistry
	handler    SessionHandler
	monitoring *observability.MonitoringManager
	reporter   ServingReporter

	mu       sync.Mutex
	listener net.Listener
	conns    map[*transport.Conn]struct{}
	sessions sync.WaitGroup
}

func NewServer(
	log *slog.Logger,
	opts Options,
	registry contract.IRegistry,
	handler SessionHandler,
	monitoring *observability.MonitoringManager,
) *Server {
	return &Server{
		log:        log,
		opts:       opts,
		registry:   registry,
		handler:    handler,
		monitoring: monitoring,
		conns:      make(map[*transport.Conn]struct{}),
	}
}

// WithReporter registers who to tell when the server starts or stops serving.
func (s *Server) WithReporter(reporter ServingReporter) *Server {
	s.reporter = reporter
	return s
}

// Listen binds the configured address. Failing to bind is the only fatal
// error of the server. The accept backlog is left to the operating system.
func (s *Server) Listen(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info("Chat server listening", "address", listener.Addr().String())
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then shuts down:
// the listener is closed, every connection is closed, the registry is
// cleared and running sessions get ShutdownTimeout to return.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.ErrServerNotListening
	}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = listener.Close()
		case <-stopped:
		}
	}()

	s.setServing(true)
	err := s.acceptLoop(ctx, listener)
	s.shutdown(listener)
	return err
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) error {
	delay := time.Duration(0)
	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			delay = nextDelay(delay)
			s.log.Warn("Accept failed, retrying", "error", err, "delay", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		s.monitoring.IncrAccepted()
		conn := transport.NewConn(raw, s.opts.Conn)
		s.track(conn)
		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			defer s.untrack(conn)
			s.handler.Serve(ctx, conn)
		}()
	}
}

func (s *Server) shutdown(listener net.Listener) {
	s.log.Info("Shutting down chat server")
	s.setServing(false)
	_ = listener.Close()

	members := s.registry.Snapshot()
	for _, member := range members {
		_ = member.Peer.Close()
	}
	s.registry.Clear()

	// connections still in handshake are not registered yet
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		<-done
	} else {
		select {
		case <-done:
		case <-time.After(timeout):
			s.log.Warn("Sessions still running after shutdown timeout", "timeout", timeout)
		}
	}
	s.log.Info("Chat server stopped", "closed", len(members))
}

func (s *Server) track(conn *transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn *transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) setServing(serving bool) {
	if s.reporter != nil {
		s.reporter.SetServing(serving)
	}
}

func nextDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	return min(delay*2, maxAcceptDelay)
}
