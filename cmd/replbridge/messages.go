package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replbridge/replbridge/engine"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Print the interpreter's load messages",
	Long: `Print the diagnostics the interpreter produced while loading the
current target: loaded modules, warnings and errors with source positions,
the configuration file in use, and the interpreter version.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *engine.Session) error {
			lines, err := sess.LoadMessages(ctx)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(messagesCmd)
}
