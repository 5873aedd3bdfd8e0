package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// maxLineBytes caps a single channel line. Captured interpreter output
// travels inside one JSON reply, so command-channel lines can be large.
const maxLineBytes = 4 << 20

// writeSlice bounds how long one write attempt may block before the context
// is rechecked.
const writeSlice = 50 * time.Millisecond

// Conn is one line-delimited channel to the engine. Reads have a single
// consumer: concurrent ReadLine calls are not supported. Writes from any
// number of goroutines are serialized so frames never interleave.
type Conn struct {
	nc      net.Conn
	scanner *bufio.Scanner

	writeMu sync.Mutex // one frame at a time
}

// NewConn wraps an established connection.
func NewConn(nc net.Conn) *Conn {
	s := bufio.NewScanner(nc)
	initCap := min(4096, maxLineBytes)
	s.Buffer(make([]byte, 0, initCap), maxLineBytes)
	return &Conn{nc: nc, scanner: s}
}

// ReadLine returns the next line without its terminator. The returned slice
// is a copy and stays valid across later reads. A cleanly closed peer
// reports io.EOF.
func (c *Conn) ReadLine() ([]byte, error) {
	if c.scanner.Scan() {
		return append([]byte(nil), c.scanner.Bytes()...), nil
	}
	if err := c.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// WriteLine frames line with a trailing newline and writes it. Concurrent
// callers are serialized: one frame completes before the next begins, so the
// peer never sees a torn line. The context is observed only until the first
// byte goes out; once a frame is partially written it runs to completion.
// Writes proceed in bounded slices so cancellation before the first byte is
// seen promptly even when the peer is not reading.
func (c *Conn) WriteLine(ctx context.Context, line []byte) error {
	if bytes.IndexByte(line, '\n') >= 0 {
		return fmt.Errorf("transport: line contains a newline")
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	wrote := false
	for len(buf) > 0 {
		if !wrote {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.nc.SetWriteDeadline(time.Now().Add(writeSlice)); err != nil {
			return fmt.Errorf("transport: set write deadline: %w", err)
		}
		n, err := c.nc.Write(buf)
		if n > 0 {
			wrote = true
			buf = buf[n:]
		}
		if err != nil && !isTimeout(err) {
			return err
		}
	}
	_ = c.nc.SetWriteDeadline(time.Time{})
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Close closes the underlying connection, unblocking any in-flight read.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr reports the peer address, for logging.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
