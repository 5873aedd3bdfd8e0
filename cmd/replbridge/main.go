// Command replbridge drives a replbridge engine from the shell: evaluate
// code, query types and documentation, fetch completions and load messages.
//
// By default each invocation spawns an engine, runs one command, and shuts
// the engine down. Pass --command-addr, --control-addr, and --stream-addr to
// attach to an engine that is already running instead.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagEngine      string
	flagEngineArgs  []string
	flagCommandAddr string
	flagControlAddr string
	flagStreamAddr  string
	flagTimeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "replbridge",
	Short: "Talk to a replbridge engine",
	Long: `replbridge is the command-line client for a replbridge engine: a
long-running interpreter exposed over a command, a control, and a stream
channel. It evaluates code, queries types, documentation, source locations,
and completions, and prints the interpreter's load messages.

Interrupt handling mirrors an interactive REPL: the first Ctrl-C interrupts
the engine's current execution, a second one abandons the command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Assigned here rather than in the composite literal: applyConfig refers
	// back to rootCmd, and a reference from the initializer expression would
	// form an initialization cycle the compiler rejects.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return applyConfig() }
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to the YAML config file")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&flagEngine, "engine", "", "Engine binary to spawn (overrides PATH discovery)")
	pf.StringArrayVar(&flagEngineArgs, "engine-arg", nil, "Extra argument passed to the engine binary (repeatable)")
	pf.StringVar(&flagCommandAddr, "command-addr", "", "Command channel address of a running engine")
	pf.StringVar(&flagControlAddr, "control-addr", "", "Control channel address of a running engine")
	pf.StringVar(&flagStreamAddr, "stream-addr", "", "Stream channel address of a running engine")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Overall command timeout (0 = none)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
