package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(eventsCmd)
}

var eventsCmd = &cobra.Command{
	Use:   "events <manuscript>",
	Short: "Show a manuscript's events in repaired chronological order",
	Long: `Show the stored event list for a manuscript, in the order the
pipeline reconstructed: dated events by timestamp, undated events
anchored before the next dated event from the same scrape.

Examples:
  refline events MS-2026-041
  refline events MS-2026-041 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	tl, err := db.GetTimeline(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(tl.Events)
	}

	rows := make([][]string, 0, len(tl.Events))
	for _, ev := range tl.Events {
		from := ev.FromDisplayName
		if from == "" {
			from = ev.FromAddress
		}
		rows = append(rows, []string{
			formatDate(ev.Timestamp),
			string(ev.SemanticType),
			truncateString(from, 24),
			truncateString(ev.Subject, 44),
		})
	}
	fmt.Println(renderTable(
		[]string{"Date", "Type", "From", "Subject"},
		rows))
	return nil
}
