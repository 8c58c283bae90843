package transport

import (
	"fmt"
	"line-chat/codec"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConn_ConcurrentWritesStayWholeLines(t *testing.T) {
	req := require.New(t)
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConn(server, Options{WriteTimeout: time.Second})
	defer conn.Close()

	const writers, perWriter = 8, 25
	received := make(chan []string, 1)
	go func() {
		reader := codec.NewLineReader(client, 0)
		var lines []string
		for len(lines) < writers*perWriter {
			line, err := reader.ReadLine()
			if err != nil {
				break
			}
			lines = append(lines, line)
		}
		received <- lines
	}()

	// Given several goroutines writing to the same connection
	wg := sync.WaitGroup{}
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = conn.WriteLine(fmt.Sprintf("writer-%d message-%d with some padding", w, i))
			}
		}(w)
	}
	wg.Wait()

	// Then every line arrives intact
	lines := <-received
	req.Len(lines, writers*perWriter)
	for _, line := range lines {
		req.Regexp(`^writer-\d+ message-\d+ with some padding$`, line)
	}
}

func TestConn_IdleTimeout(t *testing.T) {
	req := require.New(t)
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConn(server, Options{IdleTimeout: 20 * time.Millisecond})
	defer conn.Close()

	// When the peer stays silent
	start := time.Now()
	_, err := conn.ReadLine()

	// Then the read gives up with a timeout
	req.Error(err)
	req.True(IsTimeout(err))
	req.Less(time.Since(start), time.Second)
}

func TestConn_ReadLine(t *testing.T) {
	req := require.New(t)
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConn(server, Options{})

	go func() {
		_, _ = client.Write([]byte("Alice\nhel"))
		_, _ = client.Write([]byte("lo\n"))
	}()

	name, err := conn.ReadLine()
	req.NoError(err)
	req.Equal("Alice", name)

	line, err := conn.ReadLine()
	req.NoError(err)
	req.Equal("hello", line)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConn(server, Options{})

	req.NoError(conn.Close())
	req.NoError(conn.Close())

	err := conn.WriteLine("too late")
	req.Error(err)
	req.True(IsClosed(err))
}

func TestConn_Identity(t *testing.T) {
	req := require.New(t)
	_, server := net.Pipe()
	first := NewConn(server, Options{})
	second := NewConn(server, Options{})

	_, err := uuid.Parse(first.ID())
	req.NoError(err)
	req.NotEqual(first.ID(), second.ID())
	req.WithinDuration(time.Now().UTC(), first.ConnectedAt(), time.Second)
}
