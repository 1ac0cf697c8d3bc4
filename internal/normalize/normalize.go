// Package normalize turns raw scraped records into uniform Event values.
//
// Normalization is pure: it never reaches back to the source system and it
// never guesses. A timestamp that fails every known format becomes a nil
// timestamp, and a record too empty to mean anything becomes a collected
// Failure rather than an error surfaced to the caller.
package normalize

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matsen/refline/internal/event"
)

// Failure records one record that could not be normalized. Failures are
// collected, never fatal.
type Failure struct {
	Index  int    `json:"index"`  // Position of the record in its batch
	Reason string `json:"reason"` // Human-readable description
}

func (f Failure) Error() string {
	return fmt.Sprintf("record %d: %s", f.Index, f.Reason)
}

// eventNamespace seeds deterministic event IDs. The same raw record always
// normalizes to the same ID, which keeps pipeline output byte-identical
// across runs and lets a second scrape pass deduplicate against the first.
var eventNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// All normalizes a batch of raw records, preserving ingestion order.
// Records that cannot be normalized are reported in the failure list and
// skipped; the returned events keep their original batch positions in
// IngestOrder so ordering stays stable.
func All(records []event.RawRecord) ([]event.Event, []Failure) {
	var events []event.Event
	var failures []Failure

	for i, rec := range records {
		ev, err := One(rec, i)
		if err != nil {
			failures = append(failures, err.(Failure))
			continue
		}
		events = append(events, ev)
	}

	return events, failures
}

// One normalizes a single raw record. The returned error, if any, is a
// Failure describing why the record is unusable.
func One(rec event.RawRecord, ingestOrder int) (event.Event, error) {
	from := strings.TrimSpace(rec.FromAddress)
	display := strings.TrimSpace(rec.FromDisplayName)
	subject := strings.TrimSpace(rec.Subject)

	// A record with no sender and no subject carries no editorial signal.
	if from == "" && display == "" && subject == "" {
		return event.Event{}, Failure{Index: ingestOrder, Reason: "no sender or subject"}
	}

	source := rec.Source
	if source != event.SourceEmail && source != event.SourcePlatformAudit {
		return event.Event{}, Failure{
			Index:  ingestOrder,
			Reason: fmt.Sprintf("unknown source %q", rec.Source),
		}
	}

	ev := event.Event{
		FromAddress:     strings.ToLower(from),
		FromDisplayName: display,
		Subject:         subject,
		BodyExcerpt:     rec.BodyExcerpt,
		Recipients:      append([]string(nil), rec.Recipients...),
		Attachments:     append([]string(nil), rec.Attachments...),
		Source:          source,
		SemanticType:    event.TypeOther,
		IngestOrder:     ingestOrder,
	}

	if ts, ok := ParseTimestamp(rec.Timestamp); ok {
		t := ts
		ev.Timestamp = &t
	}

	ev.ID = eventID(rec, ingestOrder)
	return ev, nil
}

// eventID derives a stable identifier from the raw record's content.
func eventID(rec event.RawRecord, ingestOrder int) string {
	key := fmt.Sprintf("%s|%s|%s|%s|%d",
		rec.Source, rec.Timestamp, rec.FromAddress, rec.Subject, ingestOrder)
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
