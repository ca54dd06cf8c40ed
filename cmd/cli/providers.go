package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
)

var (
	providerAPIURL string
	providerToken  string
)

// ProvidersCmd manages stored provider credentials.
var ProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage registered providers",
}

var providersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a provider and its API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		p, err := a.Providers.Register(ctx, args[0], providerAPIURL, providerToken)
		if err != nil {
			return describe(err)
		}
		fmt.Printf("Provider %q registered (%s, key %s)\n", p.Name, p.APIURL, p.TokenHint())
		return nil
	},
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered providers",
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		list, err := a.Providers.List(ctx)
		if err != nil {
			return describe(err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tAPI URL\tKEY")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.APIURL, p.TokenHint())
		}
		return w.Flush()
	},
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a registered provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		if err := a.Providers.Remove(ctx, args[0]); err != nil {
			return describe(err)
		}
		fmt.Printf("Provider %q removed\n", args[0])
		return nil
	},
}

func init() {
	providersAddCmd.Flags().StringVar(&providerAPIURL, "api-url", "", "provider API URL")
	providersAddCmd.Flags().StringVar(&providerToken, "api-key", "", "provider API key")
	_ = providersAddCmd.MarkFlagRequired("api-url")
	_ = providersAddCmd.MarkFlagRequired("api-key")

	ProvidersCmd.AddCommand(providersAddCmd, providersListCmd, providersRemoveCmd)
	cmd.RootCmd.AddCommand(ProvidersCmd)
}
