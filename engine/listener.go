package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/transport"
	"github.com/replbridge/replbridge/wire"
)

// errSyncInterrupted aborts a sync wait when suppress() fires mid-wait.
var errSyncInterrupted = errors.New("sync wait interrupted")

// listener owns the stream channel. It is the sole reader, and it owns the
// sync cursor: the highest marker sequence seen so far plus the suppression
// flag set while discarding output from an interrupted execution.
type listener struct {
	conn *transport.Conn

	out    io.Writer
	errOut io.Writer

	poll time.Duration
	log  *zap.Logger

	done <-chan struct{} // session teardown
	fail func(error)     // reports stream read and protocol failures

	mu         sync.Mutex
	seq        int64 // highest marker sequence seen; -1 before the first
	suppressed bool
	intr       uint64        // bumped by suppress so in-flight waits notice
	wake       chan struct{} // closed and replaced on every marker sighting
}

func newListener(conn *transport.Conn, opts Options, done <-chan struct{}, fail func(error)) *listener {
	return &listener{
		conn:   conn,
		out:    opts.Output,
		errOut: opts.ErrorOutput,
		poll:   opts.PollInterval,
		log:    opts.Logger,
		done:   done,
		fail:   fail,
		seq:    -1,
		wake:   make(chan struct{}),
	}
}

// run reads the stream channel until it closes or the session tears down.
// Must be started exactly once.
func (l *listener) run() {
	for {
		line, err := l.conn.ReadLine()
		if err != nil {
			select {
			case <-l.done:
				// Teardown closed the channel under us.
			default:
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf("%w: engine closed the stream channel",
						replbridge.ErrSessionClosed)
				}
				l.fail(err)
			}
			return
		}
		if len(line) == 0 {
			continue
		}
		if err := l.handle(line); err != nil {
			l.fail(err)
			return
		}
	}
}

// handle classifies and routes one stream line.
func (l *listener) handle(line []byte) error {
	msg, err := wire.ParseStreamLine(line)
	if err != nil {
		return err
	}
	if msg.Kind == wire.KindSync {
		l.log.Debug("sync marker", zap.Int64("seq", msg.Seq))
		l.advance(msg.Seq)
		return nil
	}

	l.mu.Lock()
	drop := l.suppressed
	l.mu.Unlock()
	if drop {
		return nil
	}

	w := l.out
	if msg.Selector == wire.SelectorError {
		w = l.errOut
	}
	if _, err := io.WriteString(w, msg.Text+"\n"); err != nil {
		// Lost local output is not a protocol failure.
		l.log.Warn("output sink write failed", zap.Error(err))
	}
	return nil
}

// advance records a marker sighting. The cursor never regresses; a stale or
// unrepresentable marker still clears suppression and wakes waiters.
func (l *listener) advance(seq int64) {
	l.mu.Lock()
	if seq > l.seq {
		l.seq = seq
	}
	l.suppressed = false
	wake := l.wake
	l.wake = make(chan struct{})
	l.mu.Unlock()
	close(wake)
}

// suppress drops content lines until the engine's next marker and aborts
// any in-flight awaitSync. Idempotent; safe from any goroutine.
func (l *listener) suppress() {
	l.mu.Lock()
	l.suppressed = true
	l.intr++
	wake := l.wake
	l.wake = make(chan struct{})
	l.mu.Unlock()
	close(wake)
}

// awaitSync blocks until the cursor reaches target. It returns ctx.Err() on
// cancellation, errSyncInterrupted when suppress() fires during the wait,
// and the session's terminal error on teardown. Wakes are backstopped by
// the poll interval, so a missed broadcast can delay the return but never
// deadlock it.
func (l *listener) awaitSync(ctx context.Context, target int64) error {
	l.mu.Lock()
	start := l.intr
	for {
		if l.seq >= target {
			l.mu.Unlock()
			return nil
		}
		if l.intr != start {
			l.mu.Unlock()
			return errSyncInterrupted
		}
		wake := l.wake
		l.mu.Unlock()

		select {
		case <-wake:
		case <-time.After(l.poll):
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return replbridge.ErrSessionClosed
		}

		l.mu.Lock()
	}
}

// cursor returns the current sync cursor, for logging and tests.
func (l *listener) cursor() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
