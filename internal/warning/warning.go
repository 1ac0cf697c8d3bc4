// Package warning collects operator-facing pipeline warnings. Warnings are
// advisory: they flag records needing manual review and never abort
// processing.
package warning

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matsen/refline/internal/event"
)

// Kind categorizes a warning.
type Kind string

const (
	// KindIllegalTransition flags a referee event the state machine
	// refused to apply, e.g. an acceptance after a decline.
	KindIllegalTransition Kind = "illegal_transition"

	// KindChronologyRepair flags a date the repairer moved further than
	// the configured threshold, which usually means a genuinely wrong
	// source timestamp.
	KindChronologyRepair Kind = "chronology_repair"

	// KindRoleConflict flags evidence that disagreed with a confidently
	// assigned role.
	KindRoleConflict Kind = "role_conflict"
)

// Warning is one advisory record. Conflicting events are attached whole so
// an operator can review them without re-running the pipeline.
type Warning struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	Subject string        `json:"subject"` // Canonical name of the person involved
	Message string        `json:"message"`
	Events  []event.Event `json:"events,omitempty"`
}

// warningNamespace seeds deterministic warning IDs so identical pipeline
// runs produce identical output.
var warningNamespace = uuid.MustParse("74738ff5-5367-5958-9aee-98fffdcd1876")

// Collector accumulates warnings in emission order. Warnings are held by
// pointer so the value Add returns stays attachable however many warnings
// follow it.
type Collector struct {
	warnings []*Warning
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a warning. The ID is derived from the warning's content and
// position, never from wall-clock time or randomness.
func (c *Collector) Add(kind Kind, subject, format string, args ...any) *Warning {
	msg := fmt.Sprintf(format, args...)
	key := fmt.Sprintf("%s|%s|%s|%d", kind, subject, msg, len(c.warnings))
	w := &Warning{
		ID:      uuid.NewSHA1(warningNamespace, []byte(key)).String(),
		Kind:    kind,
		Subject: subject,
		Message: msg,
	}
	c.warnings = append(c.warnings, w)
	return w
}

// Attach appends evidence events to the warning.
func (w *Warning) Attach(events ...event.Event) {
	w.Events = append(w.Events, events...)
}

// All returns the collected warnings in emission order.
func (c *Collector) All() []Warning {
	out := make([]Warning, len(c.warnings))
	for i, w := range c.warnings {
		out[i] = *w
	}
	return out
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	return len(c.warnings)
}
