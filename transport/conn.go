// Package transport wraps a net.Conn into a line-oriented chat connection.
package transport

import (
	stderrors "errors"
	"io"
	"line-chat/codec"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Options struct {
	// IdleTimeout bounds every ReadLine. Zero waits forever.
	IdleTimeout time.Duration
	// WriteTimeout bounds every WriteLine. Zero waits forever.
	WriteTimeout  time.Duration
	MaxLineLength int
}

// Conn is one chat connection: the transport handle, a session id and the
// input cursor used to reassemble lines.
// Reads belong to a single goroutine, writes may come from any goroutine
// and are serialized so that a line is never interleaved with another.
type Conn struct {
	id          uuid.UUID
	connectedAt time.Time
	raw         net.Conn
	reader      *codec.LineReader
	opts        Options

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConn(raw net.Conn, opts Options) *Conn {
	return &Conn{
		id:          uuid.New(),
		connectedAt: time.Now().UTC(),
		raw:         raw,
		reader:      codec.NewLineReader(raw, opts.MaxLineLength),
		opts:        opts,
	}
}

func (c *Conn) ID() string {
	return c.id.String()
}

func (c *Conn) RemoteAddr() string {
	if addr := c.raw.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *Conn) ConnectedAt() time.Time {
	return c.connectedAt
}

// ReadLine blocks until a full line, the idle timeout, or the peer closes.
func (c *Conn) ReadLine() (string, error) {
	if c.opts.IdleTimeout > 0 {
		if err := c.raw.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout)); err != nil {
			return "", err
		}
	}
	return c.reader.ReadLine()
}

// WriteLine sends text as one line in a single write.
func (c *Conn) WriteLine(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.opts.WriteTimeout > 0 {
		if err := c.raw.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return err
		}
	}
	return codec.WriteLine(c.raw, text)
}

// Close may be called from every teardown path, only the first one closes.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

// IsTimeout reports whether err comes from an expired deadline.
func IsTimeout(err error) bool {
	if stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// IsClosed reports whether err comes from using a connection already closed
// on this side.
func IsClosed(err error) bool {
	return stderrors.Is(err, net.ErrClosed) || stderrors.Is(err, io.ErrClosedPipe)
}
