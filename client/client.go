// Package client is the terminal side of the chat: it forwards typed lines
// to the server and prints whatever the server sends back.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"line-chat/codec"
	"line-chat/transport"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gookit/color"
)

const (
	// farewellWait bounds how long the client waits for the server to close
	// after the quit sentinel was sent.
	farewellWait = 2 * time.Second
	namePrompt   = "name: "
)

type Options struct {
	Addr        string
	Name        string
	QuitCommand string
	Colours     bool
}

type Client struct {
	log   *slog.Logger
	opts  Options
	alive atomic.Bool

	outMu sync.Mutex
	out   io.Writer
}

func New(log *slog.Logger, opts Options) *Client {
	return &Client{log: log, opts: opts}
}

// Alive is false once the server side of the connection is gone.
func (c *Client) Alive() bool {
	return c.alive.Load()
}

// Run connects, performs the handshake and relays lines until the quit
// sentinel is sent, the server goes away, input ends or ctx is cancelled.
// Cancelling ctx sends the quit sentinel before closing.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.out = out
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, "tcp", c.opts.Addr)
	if err != nil {
		return fmt.Errorf("could not connect to server at %s: %w", c.opts.Addr, err)
	}
	conn := transport.NewConn(raw, transport.Options{MaxLineLength: codec.DefaultMaxLineLength})
	defer func() {
		c.log.Debug("Closing connection")
		_ = conn.Close()
	}()
	c.log.Info("Connected", "address", c.opts.Addr)

	name := c.opts.Name
	if name == "" {
		c.write(namePrompt)
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			name = line
		}
	}
	if err := conn.WriteLine(name); err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	c.alive.Store(true)
	received := make(chan struct{})
	go c.receive(conn, received)

	for {
		select {
		case <-ctx.Done():
			c.quit(conn, received)
			return nil
		case <-received:
			return nil
		case line, ok := <-lines:
			if !ok {
				c.quit(conn, received)
				return nil
			}
			if !c.alive.Load() {
				return nil
			}
			if err := conn.WriteLine(line); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			if strings.TrimSpace(line) == c.opts.QuitCommand {
				waitFarewell(received)
				return nil
			}
		}
	}
}

// receive prints every inbound line until the stream ends.
func (c *Client) receive(conn *transport.Conn, received chan<- struct{}) {
	defer close(received)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			c.alive.Store(false)
			c.log.Debug("Receive loop stopped", "error", err)
			return
		}
		c.write(c.render(line) + "\n")
	}
}

func (c *Client) quit(conn *transport.Conn, received <-chan struct{}) {
	if !c.alive.Load() {
		return
	}
	if err := conn.WriteLine(c.opts.QuitCommand); err != nil {
		c.log.Debug("Quit not delivered", "error", err)
		return
	}
	waitFarewell(received)
}

func (c *Client) render(line string) string {
	if !c.opts.Colours {
		return line
	}
	switch {
	case strings.HasPrefix(line, "[whisper]"):
		return color.New(color.FgMagenta).Render(line)
	case strings.HasPrefix(line, "[server]"):
		return color.New(color.FgYellow).Render(line)
	default:
		return line
	}
}

func (c *Client) write(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

func waitFarewell(received <-chan struct{}) {
	select {
	case <-received:
	case <-time.After(farewellWait):
	}
}

// readLines feeds operator input to a channel so the relay loop can also
// watch the connection and the context. The channel closes at end of input.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-done:
				return
			}
		}
	}()
	return lines
}
