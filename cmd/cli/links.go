package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linkbridge/linkbridge/cmd"
)

var (
	linksLimit  int
	linksOffset int
)

// LinksCmd lists stored links, newest first. It is also how a link minted for
// a caller that disconnected mid-request is found again.
var LinksCmd = &cobra.Command{
	Use:   "links",
	Short: "List stored links",
	RunE: func(c *cobra.Command, args []string) error {
		a, ctx, cancel, err := openApp()
		if err != nil {
			return err
		}
		defer cancel()
		defer a.Close()

		links, total, err := a.Links.ListLinks(ctx, linksLimit, linksOffset)
		if err != nil {
			return describe(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tVISITS\tCREATED\tEXTERNAL\tORIGINAL")
		for _, l := range links {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				l.Token, l.Visits, l.CreatedAt.Format("2006-01-02 15:04"), l.ExternalShortURL, l.OriginalURL)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d link(s)\n", len(links), total)
		return nil
	},
}

func init() {
	LinksCmd.Flags().IntVar(&linksLimit, "limit", 20, "maximum number of links to show")
	LinksCmd.Flags().IntVar(&linksOffset, "offset", 0, "number of links to skip")

	cmd.RootCmd.AddCommand(LinksCmd)
}
