package engine

import (
	"context"
	"errors"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/wire"
)

// Execute runs code in the interpreter with output captured by the engine
// and returned in the response. Cancelling ctx interrupts the engine and
// returns ctx.Err() once the aborted exchange is drained.
func (s *Session) Execute(ctx context.Context, code string) (*replbridge.Response, error) {
	return s.valueQuery(ctx, wire.ExecCapture(code))
}

// ExecStream runs code with output delivered line by line to the session's
// output sinks. It returns after the engine's closing sync marker, so every
// line the execution produced has already reached its sink. Cancelling ctx
// or calling Interrupt during the output wait interrupts the engine and
// drops the remainder, but the execution itself still reports success.
func (s *Session) ExecStream(ctx context.Context, code string) (*replbridge.Response, error) {
	reply, err := s.call(ctx, wire.ExecStream(code))
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		return replbridge.ErrorMessage(reply.Content), nil
	}

	if err := s.lst.awaitSync(ctx, reply.SyncVal); err != nil {
		switch {
		case errors.Is(err, errSyncInterrupted):
			// Interrupt() already signalled the engine and suppressed
			// the stream.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.sendInterrupt()
		case errors.Is(err, replbridge.ErrSessionClosed):
			return nil, s.termErr
		default:
			return nil, err
		}
	}
	return replbridge.Stream(), nil
}

// FindDoc looks up documentation for identifier.
func (s *Session) FindDoc(ctx context.Context, identifier string) (*replbridge.Response, error) {
	return s.valueQuery(ctx, wire.OpenDoc(identifier))
}

// GetType looks up the type of identifier. showHoleFits asks the engine to
// include valid hole fits in the answer.
func (s *Session) GetType(ctx context.Context, identifier string, showHoleFits bool) (*replbridge.Response, error) {
	return s.valueQuery(ctx, wire.TypeQuery(identifier, showHoleFits))
}

// FindSource looks up the defining source location of identifier.
func (s *Session) FindSource(ctx context.Context, identifier string) (*replbridge.Response, error) {
	return s.valueQuery(ctx, wire.OpenSource(identifier))
}

// GetCompletions asks for completion candidates for the text left of the
// cursor. A declined completion returns (nil, nil).
func (s *Session) GetCompletions(ctx context.Context, lineBeforeCursor string) (*replbridge.Completions, error) {
	reply, err := s.call(ctx, wire.Completion(lineBeforeCursor))
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, nil
	}
	return &replbridge.Completions{
		StartChars: reply.StartChars,
		Candidates: reply.Candidates,
	}, nil
}

// LoadMessages returns the interpreter's load-time diagnostics rendered one
// display line at a time, in engine order. Records the renderer does not
// recognize are skipped. The reply's success flag is not consulted: load
// diagnostics arrive even when the target failed to compile.
func (s *Session) LoadMessages(ctx context.Context) ([]string, error) {
	reply, err := s.call(ctx, wire.LoadMessages())
	if err != nil {
		return nil, err
	}
	return renderLoadMessages(reply.Messages), nil
}

// valueQuery is the shared shape of every capture-style command: one
// exchange, success → Value, reported failure → ErrorMessage.
func (s *Session) valueQuery(ctx context.Context, req wire.Request) (*replbridge.Response, error) {
	reply, err := s.call(ctx, req)
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		return replbridge.ErrorMessage(reply.Content), nil
	}
	return replbridge.Value(reply.Content), nil
}
