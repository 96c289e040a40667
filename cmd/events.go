package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/pkg/storage"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded navigation events",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetDuration("since")
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openDBForRead()
		if err != nil {
			return err
		}
		defer db.Close()

		opts := storage.EventListOptions{Domain: domain, Limit: limit}
		if since > 0 {
			opts.Since = time.Now().Add(-since)
		}
		evs, err := db.ListEvents(context.Background(), opts)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tTYPE\tSOURCE\tOPENED\tERROR\t")
		for _, e := range evs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				e.OccurredAt.Local().Format("2006-01-02 15:04:05"), e.Name, orDash(e.Type), orDash(e.SourceURL), orDash(e.OutputURL), orDash(e.Error))
		}
		w.Flush()
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 24h)")
	eventsCmd.Flags().String("domain", "", "Only show events whose source belongs to this registrable domain")
	eventsCmd.Flags().Int("limit", 50, "Maximum number of events to show")
}
