package e2e

import (
	"context"
	"fmt"
	"io"
	"line-chat/codec"
	"line-chat/domain"
	"line-chat/observability"
	"line-chat/runtime"
	"line-chat/server"
	"line-chat/session"
	"line-chat/transport"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseChatSuite struct {
	suite.Suite
	Config       Config
	addr         string
	registry     *runtime.Registry
	participants []*Participant
	stop         context.CancelFunc
	served       chan error
}

// SetupSuite loads the environment configuration and starts an in-process
// server unless E2E_SERVER_ADDR points to one.
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		s.addr = s.Config.ServerAddr
		return
	}

	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	handler := session.NewHandler(log, registry,
		runtime.NewBroadcaster(log, registry, monitoring),
		runtime.NewWhisperRouter(log, registry, monitoring),
		nil, monitoring, s.Config.QuitCommand)
	chat := server.NewServer(log, server.Options{
		Addr:            "127.0.0.1:0",
		Conn:            transport.Options{IdleTimeout: time.Minute, WriteTimeout: time.Second},
		ShutdownTimeout: time.Second,
	}, registry, handler, monitoring)

	ctx, cancel := context.WithCancel(context.Background())
	s.Require().NoError(chat.Listen(ctx))
	s.addr = chat.Addr().String()
	s.registry = registry
	s.stop = cancel
	s.served = make(chan error, 1)
	go func() { s.served <- chat.Serve(ctx) }()
}

// TearDownTest hangs up every participant of the scenario and waits for
// their departures so the next scenario starts from an empty room.
func (s *BaseChatSuite) TearDownTest() {
	for _, p := range s.participants {
		p.Vanish()
	}
	s.participants = nil
	if s.registry == nil {
		time.Sleep(200 * time.Millisecond)
		return
	}
	s.Require().Eventually(func() bool { return s.registry.Len() == 0 }, s.Config.Timeout, 10*time.Millisecond)
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.stop == nil {
		return
	}
	s.stop()
	s.Require().NoError(<-s.served)
}

// Header prints a colorized step title in the test logs.
func (s *BaseChatSuite) Header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// UniqueName keeps scenarios apart when they share a long running server.
func UniqueName(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

type Participant struct {
	suite  *BaseChatSuite
	Name   string
	conn   net.Conn
	reader *codec.LineReader
}

// Join connects and completes the handshake, consuming the own join notice.
func (s *BaseChatSuite) Join(name string) *Participant {
	conn, err := net.DialTimeout("tcp", s.addr, s.Config.Timeout)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.addr)

	p := &Participant{suite: s, Name: name, conn: conn, reader: codec.NewLineReader(conn, codec.DefaultMaxLineLength)}
	s.participants = append(s.participants, p)
	p.Say(name)
	p.Hears(domain.JoinedNotice(name))
	return p
}

func (p *Participant) Say(line string) {
	p.suite.Require().NoError(codec.WriteLine(p.conn, line))
}

func (p *Participant) Hears(line string) {
	_ = p.conn.SetReadDeadline(time.Now().Add(p.suite.Config.Timeout))
	got, err := p.reader.ReadLine()
	p.suite.Require().NoError(err, "%s expected %q", p.Name, line)
	p.suite.Require().Equal(line, got, "%s", p.Name)
}

func (p *Participant) Disconnected() {
	_ = p.conn.SetReadDeadline(time.Now().Add(p.suite.Config.Timeout))
	_, err := p.reader.ReadLine()
	p.suite.Require().ErrorIs(err, io.EOF, "%s should have been disconnected", p.Name)
}

// Vanish drops the connection without quitting.
func (p *Participant) Vanish() {
	_ = p.conn.Close()
}
