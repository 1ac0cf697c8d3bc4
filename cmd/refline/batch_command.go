package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/refline/internal/classify"
	"github.com/matsen/refline/internal/config"
	"github.com/matsen/refline/internal/storage"
	"github.com/matsen/refline/internal/timeline"
)

var batchNow string

func init() {
	batchCmd.Flags().StringVar(&batchNow, "now", "", "Fix 'now' for reproducible output (YYYY-MM-DD)")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Reconstruct timelines for every manuscript in a directory",
	Long: `Process every *.jsonl file in a directory, one manuscript per
file, named by manuscript identifier (MS-2026-041.jsonl). Manuscripts
are independent, so they are processed in parallel with one worker per
manuscript.

Examples:
  refline batch ./scraped/
  refline batch ./scraped/ --human`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Processed []BatchEntry `json:"processed"`
	Errors    []string     `json:"errors,omitempty"`
}

// BatchEntry is the outcome for one manuscript.
type BatchEntry struct {
	Manuscript string `json:"manuscript"`
	PhaseName  string `json:"phase_name"`
	Urgency    string `json:"urgency"`
	Warnings   int    `json:"warnings"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	var now time.Time
	if batchNow != "" {
		parsed, err := time.Parse("2006-01-02", batchNow)
		if err != nil {
			exitWithError(ExitError, "invalid --now %q; use YYYY-MM-DD", batchNow)
		}
		now = parsed
	}

	paths, err := filepath.Glob(filepath.Join(args[0], "*.jsonl"))
	if err != nil {
		return fmt.Errorf("listing %s: %w", args[0], err)
	}
	if len(paths) == 0 {
		exitWithError(ExitDataError, "no *.jsonl files in %s", args[0])
	}
	sort.Strings(paths)

	// Build timelines in parallel; each manuscript is independent and
	// shares nothing mutable with the others.
	timelines := make([]*timeline.Timeline, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			manuscript := strings.TrimSuffix(filepath.Base(path), ".jsonl")

			records, err := storage.ReadRecords(path)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", manuscript, err)
				return nil
			}

			timelines[i] = timeline.Build(records, timeline.Options{
				Manuscript:     manuscript,
				ManuscriptFile: manuscript,
				Hints: classify.Hints{
					OperatorAddress: operatorAddress(cfg),
					DigestMarkers:   cfg.DigestMarkers,
				},
				Thresholds:     cfg.Thresholds,
				RepairWarnDays: cfg.RepairWarnDays,
				Now:            now,
			})
			return nil
		})
	}
	g.Wait()

	// Persist sequentially; SQLite takes one writer at a time.
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	result := BatchResult{}
	for i, tl := range timelines {
		if errs[i] != nil {
			result.Errors = append(result.Errors, errs[i].Error())
			continue
		}
		path := filepath.Join(config.TimelinesPath(repoRoot), tl.Manuscript+".json")
		if err := storage.WriteTimeline(path, tl); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", tl.Manuscript, err))
			continue
		}
		if err := db.SaveTimeline(tl); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", tl.Manuscript, err))
			continue
		}
		result.Processed = append(result.Processed, BatchEntry{
			Manuscript: tl.Manuscript,
			PhaseName:  string(tl.Phase.Name),
			Urgency:    string(tl.Phase.Urgency),
			Warnings:   len(tl.Warnings),
		})
	}

	if humanOutput {
		for _, e := range result.Processed {
			fmt.Printf("%-20s %-28s %-6s warnings=%d\n", e.Manuscript, e.PhaseName, e.Urgency, e.Warnings)
		}
		for _, msg := range result.Errors {
			fmt.Printf("error: %s\n", msg)
		}
		return nil
	}
	return outputJSON(result)
}
