package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/refline/internal/classify"
	"github.com/matsen/refline/internal/config"
	"github.com/matsen/refline/internal/storage"
	"github.com/matsen/refline/internal/timeline"
)

var (
	processManuscript string
	processFile       string
	processEditor     string
	processEditorMail string
	processReferees   []string
	processMergePath  string
	processNow        string
	processNoSave     bool
)

func init() {
	processCmd.Flags().StringVar(&processManuscript, "manuscript", "", "Manuscript identifier (required)")
	processCmd.Flags().StringVar(&processFile, "file", "", "Manuscript PDF filename fragment for editor bootstrap")
	processCmd.Flags().StringVar(&processEditor, "editor", "", "Known editor name")
	processCmd.Flags().StringVar(&processEditorMail, "editor-email", "", "Known editor address")
	processCmd.Flags().StringArrayVar(&processReferees, "referee", nil, "Confirmed referee name (repeatable)")
	processCmd.Flags().StringVar(&processMergePath, "merge", "", "Secondary events JSONL to merge before processing")
	processCmd.Flags().StringVar(&processNow, "now", "", "Fix 'now' for reproducible output (YYYY-MM-DD)")
	processCmd.Flags().BoolVar(&processNoSave, "no-save", false, "Print the timeline without persisting it")
	processCmd.MarkFlagRequired("manuscript")
	rootCmd.AddCommand(processCmd)
}

var processCmd = &cobra.Command{
	Use:   "process <events.jsonl>",
	Short: "Reconstruct one manuscript's review timeline",
	Long: `Run the full reconstruction pipeline over a batch of raw event
records: normalize, classify, resolve identities, track referee states,
repair chronology, and derive the editorial phase.

The operator's own address is taken from config or the REFLINE_OPERATOR
environment variable; self-authored digest emails are excluded.

Examples:
  refline process events.jsonl --manuscript MS-2026-041
  refline process events.jsonl --manuscript MS-2026-041 --editor "Ana Duarte"
  refline process events.jsonl --manuscript MS-2026-041 --merge audit.jsonl
  refline process events.jsonl --manuscript MS-2026-041 --no-save --human`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	records, err := storage.ReadRecords(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading events: %v", err)
	}
	if len(records) == 0 {
		exitWithError(ExitDataError, "no event records in %s", args[0])
	}

	if processMergePath != "" {
		secondary, err := storage.ReadRecords(processMergePath)
		if err != nil {
			exitWithError(ExitDataError, "reading merge events: %v", err)
		}
		records = timeline.MergeRecords(records, secondary)
	}

	opts := timeline.Options{
		Manuscript:     processManuscript,
		ManuscriptFile: processFile,
		Hints: classify.Hints{
			EditorName:      processEditor,
			EditorEmail:     processEditorMail,
			RefereeNames:    processReferees,
			OperatorAddress: operatorAddress(cfg),
			DigestMarkers:   cfg.DigestMarkers,
		},
		Thresholds:     cfg.Thresholds,
		RepairWarnDays: cfg.RepairWarnDays,
	}

	if processNow != "" {
		now, err := time.Parse("2006-01-02", processNow)
		if err != nil {
			exitWithError(ExitError, "invalid --now %q; use YYYY-MM-DD", processNow)
		}
		opts.Now = now
	}

	tl := timeline.Build(records, opts)

	if !processNoSave {
		path := filepath.Join(config.TimelinesPath(repoRoot), processManuscript+".json")
		if err := storage.WriteTimeline(path, tl); err != nil {
			exitWithError(ExitError, "saving timeline: %v", err)
		}

		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		if err := db.SaveTimeline(tl); err != nil {
			exitWithError(ExitError, "mirroring timeline: %v", err)
		}
	}

	if humanOutput {
		printTimelineHuman(tl)
		return nil
	}
	return outputJSON(tl)
}

// operatorAddress prefers the repository config, then the
// REFLINE_OPERATOR environment variable, then the global config.
func operatorAddress(cfg *config.Config) string {
	if cfg.OperatorAddress != "" {
		return cfg.OperatorAddress
	}
	if addr := os.Getenv("REFLINE_OPERATOR"); addr != "" {
		return addr
	}
	return config.GetGlobalOperatorAddress()
}

func printTimelineHuman(tl *timeline.Timeline) {
	fmt.Printf("Manuscript %s: %s (%s)\n", tl.Manuscript, tl.Phase.Name, tl.Phase.Urgency)
	fmt.Printf("  Action: %s\n", tl.Phase.Action)
	if tl.Phase.DaysInPhase != nil {
		fmt.Printf("  Days in phase: %d\n", *tl.Phase.DaysInPhase)
	}
	if len(tl.Phase.OverdueReferees) > 0 {
		fmt.Printf("  Overdue: %v\n", tl.Phase.OverdueReferees)
	}
	fmt.Printf("  Events: %d, referees: %d, warnings: %d, parse failures: %d\n",
		len(tl.Events), len(tl.Referees), len(tl.Warnings), len(tl.Failures))
	for _, w := range tl.Warnings {
		fmt.Printf("  warning [%s]: %s\n", w.Kind, w.Message)
	}
}
