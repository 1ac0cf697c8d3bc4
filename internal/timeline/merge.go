package timeline

import (
	"strings"

	"github.com/matsen/refline/internal/event"
)

// MergeRecords combines a primary and a secondary batch of raw records
// for the same manuscript, dropping secondary records that duplicate a
// primary one. Two records are duplicates when source, sender address,
// subject, and raw timestamp all match after trimming; the same email
// scraped twice differs in none of those.
//
// The caller rebuilds the timeline from the merged batch, which re-runs
// tracking, repair, and phase derivation over the combined history.
func MergeRecords(primary, secondary []event.RawRecord) []event.RawRecord {
	seen := make(map[string]bool, len(primary))
	out := make([]event.RawRecord, 0, len(primary)+len(secondary))

	for _, rec := range primary {
		seen[recordKey(rec)] = true
		out = append(out, rec)
	}
	for _, rec := range secondary {
		key := recordKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}

	return out
}

func recordKey(rec event.RawRecord) string {
	return strings.Join([]string{
		string(rec.Source),
		strings.ToLower(strings.TrimSpace(rec.FromAddress)),
		strings.TrimSpace(rec.Subject),
		strings.TrimSpace(rec.Timestamp),
	}, "\x1f")
}
