package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keyline-id/keyline-go/pkg/keyline"
)

func newRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyline",
		Short: "Keyline CLI - session token diagnostics",
		Long: `Keyline CLI fetches and inspects session tokens against a Keyline
instance. It is a development companion to the keyline-go SDK: point it
at a session id and it exercises the same token cache, retry policy,
and event bus your application uses.

Configuration comes from KEYLINE_PUBLISHABLE_KEY and, optionally,
KEYLINE_API_URL and KEYLINE_DEBUG. A .env file in the working directory
is honored.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

func clientFromEnv() (*keyline.Client, error) {
	key := os.Getenv("KEYLINE_PUBLISHABLE_KEY")
	if key == "" {
		return nil, errors.New("KEYLINE_PUBLISHABLE_KEY is not set")
	}

	logger := zap.NewNop()
	if os.Getenv("KEYLINE_DEBUG") == "true" {
		dev, err := zap.NewDevelopment()
		if err == nil {
			logger = dev
		}
	}

	return keyline.New(keyline.Options{
		PublishableKey: key,
		APIURL:         os.Getenv("KEYLINE_API_URL"),
		Logger:         logger,
	})
}
