package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyline-id/keyline-go/pkg/session"
)

func newTokenCommand() *cobra.Command {
	var (
		template  string
		skipCache bool
		leeway    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <session-id>",
		Short: "Fetch a session token and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromEnv()
			if err != nil {
				return err
			}

			sess, err := client.FetchSession(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch session: %w", err)
			}

			raw, err := sess.GetToken(cmd.Context(), session.TokenOptions{
				Template:  template,
				Leeway:    leeway,
				SkipCache: skipCache,
			})
			if err != nil {
				return fmt.Errorf("get token: %w", err)
			}
			if raw == "" {
				return errors.New("session has no active user")
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "token template name")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "force a network fetch")
	cmd.Flags().DurationVar(&leeway, "leeway", 0, "cache freshness leeway (e.g. 5s)")

	return cmd
}
