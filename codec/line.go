// Package codec frames a byte stream into newline-terminated UTF-8 lines.
package codec

import (
	"bufio"
	stderrors "errors"
	"io"
	"line-chat/errors"
	"strings"
)

const (
	// DefaultMaxLineLength bounds a single inbound line, newline excluded.
	DefaultMaxLineLength = 64 * 1024
	readBufferSize       = 4096
)

// Encoded lines never carry a line break in their body: it would split the
// message in two on the receiving side.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// LineReader reassembles lines from partial reads.
// Whatever follows a newline stays buffered for the next ReadLine call.
type LineReader struct {
	reader        *bufio.Reader
	maxLineLength int
}

// NewLineReader wraps r. A maxLineLength <= 0 disables the length check.
func NewLineReader(r io.Reader, maxLineLength int) *LineReader {
	return &LineReader{
		reader:        bufio.NewReaderSize(r, readBufferSize),
		maxLineLength: maxLineLength,
	}
}

// ReadLine returns the next line without its terminator.
// A trailing '\r' is dropped so CRLF peers are understood.
// An unterminated tail at end of stream is discarded and io.EOF returned.
func (l *LineReader) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, err := l.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if stderrors.Is(err, bufio.ErrBufferFull) {
			if l.tooLong(len(line)) {
				return "", errors.ErrLineTooLong
			}
			continue
		}
		return "", err
	}
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if l.tooLong(len(line)) {
		return "", errors.ErrLineTooLong
	}
	return Decode(line), nil
}

func (l *LineReader) tooLong(n int) bool {
	return l.maxLineLength > 0 && n > l.maxLineLength
}

// Decode never fails: invalid UTF-8 sequences become U+FFFD.
func Decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// Encode frames text as a single line.
func Encode(text string) []byte {
	body := lineBreaks.Replace(text)
	payload := make([]byte, 0, len(body)+1)
	payload = append(payload, body...)
	return append(payload, '\n')
}

// WriteLine writes text plus one newline with a single Write call.
func WriteLine(w io.Writer, text string) error {
	_, err := w.Write(Encode(text))
	return err
}
