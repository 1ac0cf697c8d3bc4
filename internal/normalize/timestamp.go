package normalize

import (
	"strings"
	"time"
)

// timestampLayouts lists the date formats the scraping collaborators are
// known to produce, tried in order. Email headers come in RFC 2822
// variants; the review platform's audit trail uses "DD-Mon-YYYY" and
// "Mon DD, YYYY HH:MM:SS AM/PM TZ".
var timestampLayouts = []string{
	time.RFC1123Z,                     // Mon, 02 Jan 2006 15:04:05 -0700
	time.RFC1123,                      // Mon, 02 Jan 2006 15:04:05 MST
	"2 Jan 2006 15:04:05 -0700",       // RFC 2822 without weekday
	"2 Jan 2006 15:04:05 MST",         //
	time.RFC3339,                      // 2006-01-02T15:04:05Z07:00
	"Jan 2, 2006 3:04:05 PM MST",      // Platform audit long form
	"Jan 2, 2006 15:04:05 MST",        //
	"02-Jan-2006 15:04:05",            // Platform audit with time
	"02-Jan-2006",                     // Platform audit date only
	"2006-01-02 15:04:05",             //
	"2006-01-02",                      //
}

// ParseTimestamp parses a raw timestamp string against every supported
// layout. It returns false rather than a guessed date when nothing
// matches; callers must treat that as "unknown position", never as a
// sortable zero time.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
