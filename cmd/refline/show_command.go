package main

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/refline/internal/referee"
	"github.com/matsen/refline/internal/storage"
)

var listStatus string

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "List referees in this status across all manuscripts")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <manuscript>",
	Short: "Show one manuscript's referee board and phase",
	Long: `Show the stored timeline for a manuscript: derived phase,
recommended action, and every referee's lifecycle state.

Examples:
  refline show MS-2026-041
  refline show MS-2026-041 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored manuscripts with phase and urgency",
	Long: `List every stored manuscript with its derived phase. With
--status, list referees in that lifecycle status across all
manuscripts instead.

Examples:
  refline list
  refline list --status invited --human`,
	RunE: runList,
}

func runShow(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	tl, err := db.GetTimeline(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(tl)
	}

	fmt.Printf("Manuscript %s\n", tl.Manuscript)
	fmt.Printf("Phase: %s (%s)\n", tl.Phase.Name, tl.Phase.Urgency)
	fmt.Printf("Action: %s\n", tl.Phase.Action)
	if tl.Phase.DaysInPhase != nil {
		fmt.Printf("Days in phase: %d\n", *tl.Phase.DaysInPhase)
	}
	fmt.Println()

	names := make([]string, 0, len(tl.Referees))
	for name := range tl.Referees {
		names = append(names, name)
	}
	sort.Strings(names)

	overdue := make(map[string]bool, len(tl.Phase.OverdueReferees))
	for _, name := range tl.Phase.OverdueReferees {
		overdue[name] = true
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := tl.Referees[name]
		flag := ""
		if overdue[name] {
			flag = "OVERDUE"
		}
		rows = append(rows, []string{
			truncateString(name, 30),
			statusLabel(s.Status),
			formatDate(s.InvitedDate),
			formatDate(s.ResponseDate),
			formatDate(s.ReportDate),
			flag,
		})
	}
	fmt.Println(renderTable(
		[]string{"Referee", "Status", "Invited", "Responded", "Report", ""},
		rows))

	if len(tl.Warnings) > 0 {
		fmt.Println()
		for _, w := range tl.Warnings {
			fmt.Printf("warning [%s]: %s\n", w.Kind, w.Message)
		}
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	if listStatus != "" {
		return listByStatus(db)
	}

	summaries, err := db.ListTimelines()
	if err != nil {
		exitWithError(ExitError, "listing timelines: %v", err)
	}

	if !humanOutput {
		return outputJSON(summaries)
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		days := ""
		if s.DaysInPhase != nil {
			days = fmt.Sprintf("%d", *s.DaysInPhase)
		}
		rows = append(rows, []string{
			s.Manuscript,
			s.PhaseName,
			s.Urgency,
			days,
			fmt.Sprintf("%d", s.WarningCount),
		})
	}
	fmt.Println(renderTable(
		[]string{"Manuscript", "Phase", "Urgency", "Days", "Warnings"},
		rows))
	return nil
}

func listByStatus(db *storage.DB) error {
	status := referee.Status(listStatus)
	switch status {
	case referee.StatusNotInvited, referee.StatusInvited, referee.StatusAccepted,
		referee.StatusDeclined, referee.StatusReportSubmitted:
	default:
		exitWithError(ExitError, "unknown status %q", listStatus)
	}

	refs, err := db.RefereesByStatus(status)
	if err != nil {
		exitWithError(ExitError, "listing referees: %v", err)
	}

	if !humanOutput {
		return outputJSON(refs)
	}

	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, []string{
			r.Manuscript,
			truncateString(r.Referee, 30),
			nullDate(r.InvitedDate),
			nullDate(r.ResponseDate),
			nullDate(r.ReportDate),
		})
	}
	fmt.Println(renderTable(
		[]string{"Manuscript", "Referee", "Invited", "Responded", "Report"},
		rows))
	return nil
}

func nullDate(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339, s.String); err == nil {
		return t.Format("2006-01-02")
	}
	return s.String
}

func statusLabel(s referee.Status) string {
	switch s {
	case referee.StatusNotInvited:
		return "not invited"
	case referee.StatusInvited:
		return "invited"
	case referee.StatusAccepted:
		return "accepted"
	case referee.StatusDeclined:
		return "declined"
	case referee.StatusReportSubmitted:
		return "report submitted"
	}
	return string(s)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
