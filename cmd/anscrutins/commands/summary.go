package commands

import (
	"fmt"
	"os"

	"anscrutins/internal/harvest"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/internal/store"
	"anscrutins/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var summaryLimit *int

func init() {
	summaryLimit = summaryCmd.Flags().Int("limit", 0, "Only print the first votes of the listing, 0 prints all of them.")
	rootCmd.AddCommand(summaryCmd)
}

// stored is "yes" when the artifact of `url` exists, "-" when there is nothing to store.
func stored(s store.Store, url string) string {
	if url == "" {
		return "-"
	}
	artifact, err := s.PathForUrl(url)
	if err != nil {
		return "-"
	}
	if s.IsComplete(artifact) {
		return "yes"
	}
	return "no"
}

var summaryCmd = &cobra.Command{
	Use:   "summary --legislature <n> [--limit <n>]",
	Short: "Prints the stored listing of a legislature and which of its records were stored.",
	Run: func(cmd *cobra.Command, args []string) {
		leg := requireLegislature()
		s := store.New(cfg.DataDir)

		var listing harvest.Listing
		err := s.Get(cmd.Context(), s.ListingPath(leg), &listing)
		if err != nil {
			serviceutil.Fatal("failed to read listing, run scrape first", err)
		}

		events := listing.Scrutins
		if *summaryLimit > 0 && *summaryLimit < len(events) {
			events = events[:*summaryLimit]
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Id", "Date", "Adopted", "For", "Against", "Abstention", "Analysis", "Amendment", "Name"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "For", Align: text.AlignRight},
			{Name: "Against", Align: text.AlignRight},
			{Name: "Abstention", Align: text.AlignRight},
			{Name: "Name", WidthMax: 70},
		})

		adopted := 0
		for _, e := range events {
			if e.Adopted {
				adopted++
			}
			amendment := "-"
			if assemblee.IsAmendmentUrl(e.TextUrl) {
				amendment = stored(s, e.TextUrl)
			}
			t.AppendRow(table.Row{
				e.Id,
				e.Date,
				yesNo(e.Adopted),
				e.VoteFor,
				e.VoteAgainst.String(),
				e.VoteAbstention.String(),
				stored(s, e.Url),
				amendment,
				e.Name,
			})
		}
		t.AppendFooter(table.Row{
			"", "", fmt.Sprintf("%d/%d", adopted, len(events)), "", "", "", "", "", fmt.Sprintf("%d votes stored", listing.Total),
		})
		t.Render()
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
