package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/transport"
	"github.com/replbridge/replbridge/wire"
)

// interruptSendTimeout bounds the control-channel write. The caller's
// context is typically already cancelled when an interrupt goes out, so the
// send runs under its own deadline.
const interruptSendTimeout = time.Second

// Session is a live connection to one engine. Commands may be issued from
// any goroutine; they serialize on the command channel. Close releases the
// channels and, for a spawned engine, the subprocess.
type Session struct {
	id   string
	opts Options
	log  *zap.Logger

	chans *transport.Channels
	lst   *listener
	proc  *engineProc // nil in attached mode

	callMu sync.Mutex // serializes command exchanges; alternation depends on it

	// replies carries parsed command-channel replies from replyLoop to the
	// one caller awaiting them.
	replies chan *wire.Reply

	done     chan struct{}
	failOnce sync.Once
	termErr  error
	closing  atomic.Bool

	closeOnce sync.Once
	closeErr  error

	wg sync.WaitGroup
}

// newSession wires a session over connected channels and starts its reader
// goroutines. proc is nil in attached mode.
func newSession(chans *transport.Channels, proc *engineProc, opts Options) *Session {
	id := uuid.NewString()
	opts.Logger = opts.Logger.With(zap.String("session", id))

	s := &Session{
		id:      id,
		opts:    opts,
		log:     opts.Logger,
		chans:   chans,
		proc:    proc,
		replies: make(chan *wire.Reply),
		done:    make(chan struct{}),
	}
	s.lst = newListener(chans.Stream, opts, s.done, s.fail)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.lst.run()
	}()
	go func() {
		defer s.wg.Done()
		s.replyLoop()
	}()

	s.log.Debug("session started",
		zap.Bool("owned", proc != nil),
		zap.Stringer("command", chans.Command.RemoteAddr()),
		zap.Stringer("control", chans.Control.RemoteAddr()),
		zap.Stringer("stream", chans.Stream.RemoteAddr()))
	return s
}

// ID returns the session's unique identifier, as carried in its logs.
func (s *Session) ID() string {
	return s.id
}

// Done returns a channel closed when the session terminates, by Close or by
// failure.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the session's terminal error, or nil while it is running.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.termErr
	default:
		return nil
	}
}

// Interrupt asks the engine to abort whatever it is executing. Safe from
// any goroutine, including while another is blocked in a command. Each call
// sends exactly one control signal; output already in flight is dropped
// until the engine's next sync marker.
func (s *Session) Interrupt() error {
	select {
	case <-s.done:
		return s.termErr
	default:
	}
	s.sendInterrupt()
	return nil
}

// Close shuts the session down: pending and future calls fail with
// ErrSessionClosed, the channels close, the reader goroutines join, and a
// spawned engine is stopped (SIGTERM, grace period, SIGKILL). Idempotent.
// Returns nil on a clean shutdown, or the session's earlier failure.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.fail(replbridge.ErrSessionClosed)
		s.wg.Wait()
		if s.proc != nil {
			if err := s.proc.stop(); err != nil {
				s.log.Debug("engine exit", zap.Error(err))
			}
		}
		if !errors.Is(s.termErr, replbridge.ErrSessionClosed) {
			s.closeErr = s.termErr
		}
		s.log.Debug("session closed")
	})
	return s.closeErr
}

// fail records the session's terminal error and begins teardown: done
// closes, the channels close (unblocking both readers), and an owned engine
// is killed unless an orderly Close is in progress. First caller wins.
func (s *Session) fail(err error) {
	s.failOnce.Do(func() {
		if s.closing.Load() {
			err = replbridge.ErrSessionClosed
		}
		s.termErr = err
		close(s.done)
		_ = s.chans.Close()
		if s.proc != nil && !s.closing.Load() {
			_ = s.proc.kill()
		}
		if !errors.Is(err, replbridge.ErrSessionClosed) {
			s.log.Error("session failed", zap.Error(err))
		}
	})
}

// replyLoop is the sole reader of the command channel. Strict alternation
// means at most one caller ever waits, so a plain channel is the entire
// correlation story: replies deliver in arrival order.
func (s *Session) replyLoop() {
	defer close(s.replies)
	for {
		line, err := s.chans.Command.ReadLine()
		if err != nil {
			select {
			case <-s.done:
				// Teardown closed the channel under us.
			default:
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf("%w: engine closed the command channel",
						replbridge.ErrSessionClosed)
				}
				s.fail(err)
			}
			return
		}
		if len(line) == 0 {
			continue
		}
		reply, err := wire.ParseReply(line)
		if err != nil {
			s.fail(err)
			return
		}
		select {
		case s.replies <- reply:
		case <-s.done:
			return
		}
	}
}

// call performs one command exchange: encode, send, await the reply that
// answers req. Holding callMu across the full exchange is what makes
// request/reply alternation structural rather than cooperative.
func (s *Session) call(ctx context.Context, req wire.Request) (*wire.Reply, error) {
	select {
	case <-s.done:
		return nil, s.termErr
	default:
	}

	s.callMu.Lock()
	defer s.callMu.Unlock()

	// Check again after acquiring the lock.
	select {
	case <-s.done:
		return nil, s.termErr
	default:
	}

	data, err := req.Encode()
	if err != nil {
		return nil, err
	}
	s.log.Debug("command", zap.String("tag", req.Tag))

	if err := s.chans.Command.WriteLine(ctx, data); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Nothing hit the wire; the exchange never started.
			return nil, err
		}
		s.fail(fmt.Errorf("command send: %w", err))
		return nil, s.termErr
	}
	return s.awaitReply(ctx, req)
}

// awaitReply blocks until the engine answers req. Cancellation mid-wait
// runs the interrupt sequence before surfacing ctx.Err(), keeping the
// channel aligned for the next call.
func (s *Session) awaitReply(ctx context.Context, req wire.Request) (*wire.Reply, error) {
	select {
	case reply, ok := <-s.replies:
		return s.checkReply(reply, ok, req)
	case <-ctx.Done():
		// The reply may have arrived in the same instant; prefer it over
		// the cancellation.
		select {
		case reply, ok := <-s.replies:
			return s.checkReply(reply, ok, req)
		default:
		}
		return nil, s.cancelInFlight(ctx, req)
	case <-s.done:
		select {
		case reply, ok := <-s.replies:
			return s.checkReply(reply, ok, req)
		default:
		}
		return nil, s.termErr
	}
}

// checkReply validates that a delivered reply answers req.
func (s *Session) checkReply(reply *wire.Reply, ok bool, req wire.Request) (*wire.Reply, error) {
	if !ok {
		// replyLoop exited; the terminal error says why.
		return nil, s.termErr
	}
	if !reply.Answers(req) {
		err := fmt.Errorf("%w: reply %q does not answer %q",
			replbridge.ErrProtocol, reply.Tag, req.Tag)
		s.fail(err)
		return nil, err
	}
	return reply, nil
}

// cancelInFlight runs the interrupt sequence after cancellation aborted a
// reply wait: signal the engine, suppress the stream, then block until the
// acknowledgment reply for the aborted request is drained. The drain is
// unconditional: an orphan reply left in the channel would desynchronize
// every later call. Repeated interrupts during the drain come from
// Interrupt(), which is safe to call here.
func (s *Session) cancelInFlight(ctx context.Context, req wire.Request) error {
	s.log.Debug("interrupting in-flight command", zap.String("tag", req.Tag))
	s.sendInterrupt()

	select {
	case reply, ok := <-s.replies:
		if _, err := s.checkReply(reply, ok, req); err != nil {
			return err
		}
		// Acknowledgment drained and discarded.
		return ctx.Err()
	case <-s.done:
		select {
		case reply, ok := <-s.replies:
			if _, err := s.checkReply(reply, ok, req); err != nil {
				return err
			}
			return ctx.Err()
		default:
		}
		return s.termErr
	}
}

// sendInterrupt delivers one control-channel signal, then suppresses the
// stream.
func (s *Session) sendInterrupt() {
	ictx, cancel := context.WithTimeout(context.Background(), interruptSendTimeout)
	defer cancel()
	if err := s.chans.Control.WriteLine(ictx, []byte(wire.InterruptSignal)); err != nil {
		s.log.Warn("control send failed", zap.Error(err))
	}
	s.lst.suppress()
}
