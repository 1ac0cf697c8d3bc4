// Package storage handles data persistence in JSONL and SQLite formats.
//
// Raw event batches travel as JSONL, one record per line, which keeps
// scraper output git-versionable and diffable. Assembled timelines are
// written as single JSON documents and mirrored into an ephemeral SQLite
// database for querying.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/timeline"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadRecords reads all raw event records from a JSONL file. A missing
// file reads as an empty batch.
func ReadRecords(path string) ([]event.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening events file: %w", err)
	}
	defer f.Close()

	var records []event.RawRecord
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec event.RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading events file: %w", err)
	}

	return records, nil
}

// WriteRecords writes raw event records to a JSONL file, replacing
// existing content.
func WriteRecords(path string, records []event.RawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating events file: %w", err)
	}
	defer f.Close()

	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	return nil
}

// WriteTimeline writes an assembled timeline as an indented JSON document.
func WriteTimeline(path string, tl *timeline.Timeline) error {
	data, err := json.MarshalIndent(tl, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding timeline: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing timeline: %w", err)
	}

	return nil
}

// ReadTimeline reads a timeline JSON document.
func ReadTimeline(path string) (*timeline.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading timeline: %w", err)
	}

	var tl timeline.Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}

	return &tl, nil
}
