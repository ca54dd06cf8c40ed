package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
	"github.com/linkbridge/linkbridge/internal/services"
)

var (
	bridgeProvider string
	bridgeKey      string
	bridgeURL      string
	bridgeName     string
)

// BridgeCmd shortens a URL through a provider from the shell.
var BridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Shorten a URL through a provider and mint a local link",
	Long: `Calls the provider, stores the short URL it returns under a new token and
prints the local link.

Example:
  linkbridge bridge --provider https://short.example/api --key $KEY --url example.com
  linkbridge bridge --name acme --url https://example.com/page`,
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		link, err := a.Bridge.Bridge(ctx, services.BridgeRequest{
			ProviderURL:  bridgeProvider,
			Key:          bridgeKey,
			ProviderName: bridgeName,
			Destination:  bridgeURL,
		})
		if err != nil {
			return describe(err)
		}

		fmt.Printf("Link created:\n")
		fmt.Printf("Token:    %s\n", link.Token)
		fmt.Printf("Original: %s\n", link.OriginalURL)
		fmt.Printf("External: %s\n", link.ExternalShortURL)
		fmt.Printf("Link:     %s/start/%s\n", strings.TrimRight(cmd.Cfg.Server.BaseURL, "/"), link.Token)
		return nil
	},
}

func init() {
	BridgeCmd.Flags().StringVar(&bridgeProvider, "provider", "", "provider API URL")
	BridgeCmd.Flags().StringVar(&bridgeKey, "key", "", "provider API key")
	BridgeCmd.Flags().StringVar(&bridgeURL, "url", "", "destination URL to shorten")
	BridgeCmd.Flags().StringVar(&bridgeName, "name", "", "registered provider to use instead of --provider/--key")
	_ = BridgeCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(BridgeCmd)
}
