package timeline

import (
	"sort"

	"github.com/matsen/refline/internal/event"
)

// Order sorts events into the timeline's canonical order: ascending by
// timestamp, ties broken by ingestion order. An event with no timestamp
// is anchored "as early as safely possible": immediately before the
// first event with a known timestamp that follows it in ingestion order,
// keeping ingestion order among anchored peers. Events with no timestamp
// and no later anchor go to the end in ingestion order.
//
// The rule is fully deterministic; identical inputs always produce
// identical orderings.
func Order(events []event.Event) []event.Event {
	var dated []event.Event
	var undated []event.Event
	for _, ev := range events {
		if ev.Timestamp != nil {
			dated = append(dated, ev)
		} else {
			undated = append(undated, ev)
		}
	}

	sort.SliceStable(undated, func(i, j int) bool {
		return undated[i].IngestOrder < undated[j].IngestOrder
	})
	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Timestamp.Equal(*dated[j].Timestamp) {
			return dated[i].Timestamp.Before(*dated[j].Timestamp)
		}
		return dated[i].IngestOrder < dated[j].IngestOrder
	})

	// Anchor each undated event to the first dated event that follows it
	// in ingestion order.
	anchored := make(map[string][]event.Event) // anchor event ID -> undated events
	var unanchored []event.Event
	for _, ev := range undated {
		anchor, ok := nextDated(dated, ev.IngestOrder)
		if !ok {
			unanchored = append(unanchored, ev)
			continue
		}
		anchored[anchor.ID] = append(anchored[anchor.ID], ev)
	}

	out := make([]event.Event, 0, len(events))
	for _, ev := range dated {
		out = append(out, anchored[ev.ID]...)
		out = append(out, ev)
	}
	out = append(out, unanchored...)
	return out
}

// nextDated returns the dated event with the smallest ingestion order
// greater than the given one.
func nextDated(dated []event.Event, after int) (event.Event, bool) {
	var best event.Event
	found := false
	for _, ev := range dated {
		if ev.IngestOrder <= after {
			continue
		}
		if !found || ev.IngestOrder < best.IngestOrder {
			best = ev
			found = true
		}
	}
	return best, found
}
