package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
)

// StatsCmd prints the visit count of one link.
var StatsCmd = &cobra.Command{
	Use:   "stats [token]",
	Short: "Get statistics for a link",
	Long:  `Get the visit count and targets of the link minted under token.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	a, ctx, cancel, err := openApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()

	link, err := a.Links.GetLinkStats(ctx, args[0])
	if err != nil {
		return describe(err)
	}

	fmt.Printf("Statistics for token: %s\n", link.Token)
	fmt.Printf("Original URL: %s\n", link.OriginalURL)
	fmt.Printf("External URL: %s\n", link.ExternalShortURL)
	fmt.Printf("Visits: %d\n", link.Visits)
	fmt.Printf("Created: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
