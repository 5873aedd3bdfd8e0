package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/replbridge/replbridge/engine"
	"github.com/replbridge/replbridge/transport"
)

// withSession connects to an engine, relays Ctrl-C as engine interrupts, and
// runs fn. The session closes when fn returns.
func withSession(cmd *cobra.Command, fn func(context.Context, *engine.Session) error) error {
	logger, err := newLogger(flagLogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := connect(ctx, cmd, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
		case <-sess.Done():
			return
		}
		logger.Debug("interrupt requested")
		_ = sess.Interrupt()
		select {
		case <-sigs:
			cancel()
		case <-sess.Done():
		}
	}()

	return fn(ctx, sess)
}

// connect attaches when all three channel addresses are given and spawns an
// engine otherwise.
func connect(ctx context.Context, cmd *cobra.Command, logger *zap.Logger) (*engine.Session, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithOutput(cmd.OutOrStdout()),
		engine.WithErrorOutput(cmd.ErrOrStderr()),
	}

	set := 0
	for _, addr := range []string{flagCommandAddr, flagControlAddr, flagStreamAddr} {
		if addr != "" {
			set++
		}
	}
	switch set {
	case 3:
		return engine.Attach(ctx, transport.Endpoints{
			Command: flagCommandAddr,
			Control: flagControlAddr,
			Stream:  flagStreamAddr,
		}, opts...)
	case 0:
		if flagEngine != "" {
			opts = append(opts, engine.WithEngineBinary(flagEngine))
		}
		if len(flagEngineArgs) > 0 {
			opts = append(opts, engine.WithEngineArgs(flagEngineArgs...))
		}
		if flagTimeout > 0 {
			opts = append(opts, engine.WithStartupTimeout(flagTimeout))
		}
		return engine.Spawn(ctx, opts...)
	default:
		return nil, errors.New("--command-addr, --control-addr, and --stream-addr must be set together")
	}
}
