package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replbridge/replbridge/engine"
)

var flagStream bool

var evalCmd = &cobra.Command{
	Use:   "eval CODE",
	Short: "Evaluate code in the interpreter",
	Long: `Evaluate code in the interpreter and print the result.

With --stream the output is printed line by line as the engine produces it,
which suits long-running or output-heavy executions. Without it the engine
captures the output and returns it whole.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *engine.Session) error {
			if flagStream {
				resp, err := sess.ExecStream(ctx, args[0])
				if err != nil {
					return err
				}
				if resp.IsError() {
					return errors.New(resp.Content)
				}
				return nil
			}

			resp, err := sess.Execute(ctx, args[0])
			if err != nil {
				return err
			}
			if resp.IsError() {
				return errors.New(resp.Content)
			}
			if resp.Content != "" {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
			}
			return nil
		})
	},
}

func init() {
	evalCmd.Flags().BoolVar(&flagStream, "stream", false, "Stream output lines instead of capturing them")
	rootCmd.AddCommand(evalCmd)
}
