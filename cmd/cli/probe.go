package cli

import (
	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
	"github.com/linkbridge/linkbridge/internal/services"
)

var (
	probeProvider string
	probeKey      string
	probeURL      string
	probeName     string
)

// ProbeCmd makes one uncorrected provider call and prints what came back.
var ProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test a provider configuration without creating a link",
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		report, err := a.Bridge.Probe(ctx, services.BridgeRequest{
			ProviderURL:  probeProvider,
			Key:          probeKey,
			ProviderName: probeName,
			Destination:  probeURL,
		})
		if err != nil {
			return describe(err)
		}
		return printJSON(report)
	},
}

func init() {
	ProbeCmd.Flags().StringVar(&probeProvider, "provider", "", "provider API URL")
	ProbeCmd.Flags().StringVar(&probeKey, "key", "", "provider API key")
	ProbeCmd.Flags().StringVar(&probeURL, "url", "", "destination URL (default https://example.com)")
	ProbeCmd.Flags().StringVar(&probeName, "name", "", "registered provider to use instead of --provider/--key")

	cmd.RootCmd.AddCommand(ProbeCmd)
}
