package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/transport"
)

// DefaultBinary is the engine executable Spawn looks for on PATH.
const DefaultBinary = "replbridge-engine"

// EnvEngineBinary overrides engine discovery when the binary is not on PATH.
const EnvEngineBinary = "REPLBRIDGE_ENGINE"

// EnvEngineMode is exported to spawned engines so they serve their channels
// and print the endpoint line instead of running interactively.
const EnvEngineMode = "REPLBRIDGE_ENGINE_MODE"

// Spawn launches an engine subprocess, reads the endpoint line it prints on
// stdout, connects the three channels, and returns a running session that
// owns the process. On any failure the process is killed and reaped; Spawn
// never returns a partially constructed session.
func Spawn(ctx context.Context, opts ...Option) (*Session, error) {
	o := resolveOptions(opts...)

	binary, err := resolveBinary(o)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(binary, o.Args...)
	cmd.Env = append(os.Environ(), EnvEngineMode+"=1")
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: engine stdout pipe: %w",
			replbridge.ErrEngineUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w",
			replbridge.ErrEngineUnavailable, binary, err)
	}

	proc := &engineProc{cmd: cmd, grace: o.GracePeriod}

	br := bufio.NewReader(stdout)
	eps, err := readBootstrap(ctx, br, o.StartupTimeout)
	if err != nil {
		_ = proc.kill()
		return nil, fmt.Errorf("%w: engine bootstrap: %w",
			replbridge.ErrEngineUnavailable, err)
	}

	// Keep draining stdout so the engine never blocks on a full pipe. The
	// copy ends when the process exits.
	go func() {
		_, _ = io.Copy(io.Discard, br)
	}()

	chans, err := transport.Dial(ctx, eps)
	if err != nil {
		_ = proc.kill()
		return nil, err
	}

	o.Logger.Debug("engine spawned",
		zap.String("binary", binary),
		zap.String("command", eps.Command),
		zap.String("control", eps.Control),
		zap.String("stream", eps.Stream))
	return newSession(chans, proc, o), nil
}

// Attach connects to an engine already serving the given endpoints. The
// engine process is not owned: Close releases the connections only.
func Attach(ctx context.Context, eps transport.Endpoints, opts ...Option) (*Session, error) {
	o := resolveOptions(opts...)
	chans, err := transport.Dial(ctx, eps)
	if err != nil {
		return nil, err
	}
	return newSession(chans, nil, o), nil
}

// AttachEnv is Attach with endpoints read from the REPLBRIDGE_*_ADDR
// environment variables.
func AttachEnv(ctx context.Context, opts ...Option) (*Session, error) {
	eps, err := transport.FromEnv()
	if err != nil {
		return nil, err
	}
	return Attach(ctx, eps, opts...)
}

// resolveBinary locates the engine executable: the configured override,
// then PATH, then the REPLBRIDGE_ENGINE variable.
func resolveBinary(o Options) (string, error) {
	if o.Binary != "" {
		path, err := exec.LookPath(o.Binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w",
				replbridge.ErrEngineUnavailable, o.Binary, err)
		}
		return path, nil
	}
	if path, err := exec.LookPath(DefaultBinary); err == nil {
		return path, nil
	}
	if path := os.Getenv(EnvEngineBinary); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s not on PATH and %s not set",
		replbridge.ErrEngineUnavailable, DefaultBinary, EnvEngineBinary)
}

// readBootstrap reads the engine's endpoint line from its stdout under the
// startup timeout. An engine that prints nothing, or prints something else,
// fails construction.
func readBootstrap(ctx context.Context, r *bufio.Reader, timeout time.Duration) (transport.Endpoints, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return transport.Endpoints{}, fmt.Errorf("reading endpoint line: %w", res.err)
		}
		return transport.ParseBootstrap(res.line)
	case <-time.After(timeout):
		return transport.Endpoints{}, fmt.Errorf("no endpoint line within %v", timeout)
	case <-ctx.Done():
		return transport.Endpoints{}, ctx.Err()
	}
}

// engineProc owns a spawned engine process. stop and kill are idempotent
// and funnel through one sync.Once; whichever runs first reaps the process.
type engineProc struct {
	cmd   *exec.Cmd
	grace time.Duration

	once sync.Once
	werr error
}

// stop terminates the engine gracefully: SIGTERM, grace period, SIGKILL.
func (p *engineProc) stop() error { return p.shutdown(true) }

// kill terminates the engine immediately.
func (p *engineProc) kill() error { return p.shutdown(false) }

func (p *engineProc) shutdown(graceful bool) error {
	p.once.Do(func() {
		waitCh := make(chan error, 1)
		go func() { waitCh <- p.cmd.Wait() }()

		if graceful {
			_ = signalProcess(p.cmd.Process, syscall.SIGTERM)
			select {
			case p.werr = <-waitCh:
				return
			case <-time.After(p.grace):
			}
		}
		_ = signalProcess(p.cmd.Process, os.Kill)
		p.werr = <-waitCh
	})
	return p.werr
}

// signalProcess sends sig, treating an already-exited process as success.
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
