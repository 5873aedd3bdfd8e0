package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/engine"
)

var flagNoHoleFits bool

var typeCmd = &cobra.Command{
	Use:   "type IDENT",
	Short: "Show the type of an identifier or expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, sess *engine.Session) (*replbridge.Response, error) {
			return sess.GetType(ctx, args[0], !flagNoHoleFits)
		})
	},
}

var docCmd = &cobra.Command{
	Use:   "doc IDENT",
	Short: "Show documentation for an identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, sess *engine.Session) (*replbridge.Response, error) {
			return sess.FindDoc(ctx, args[0])
		})
	},
}

var sourceCmd = &cobra.Command{
	Use:   "source IDENT",
	Short: "Show the defining source location of an identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, sess *engine.Session) (*replbridge.Response, error) {
			return sess.FindSource(ctx, args[0])
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete LINE",
	Short: "List completion candidates for a partial input line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *engine.Session) error {
			comps, err := sess.GetCompletions(ctx, args[0])
			if err != nil {
				return err
			}
			if comps == nil {
				return nil
			}
			for _, c := range comps.Candidates {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		})
	},
}

// runQuery runs one capture-style query and prints its result, turning an
// engine-reported failure into a command error.
func runQuery(cmd *cobra.Command, q func(context.Context, *engine.Session) (*replbridge.Response, error)) error {
	return withSession(cmd, func(ctx context.Context, sess *engine.Session) error {
		resp, err := q(ctx, sess)
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
}

func init() {
	typeCmd.Flags().BoolVar(&flagNoHoleFits, "no-hole-fits", false, "Ask the engine to omit valid hole fits")
	rootCmd.AddCommand(typeCmd, docCmd, sourceCmd, completeCmd)
}
