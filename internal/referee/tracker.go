package referee

import (
	"strings"
	"time"

	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/warning"
)

// Tracker maintains one State per referee, created lazily on first
// sighting and mutated only through Apply so the transition table is
// enforced in one place. A Tracker is scoped to a single manuscript.
type Tracker struct {
	states map[string]*State
	order  []string // Canonical names in first-seen order

	// lastBlocking remembers, per referee, the event that put the referee
	// into a terminal state, so later conflicting events can be attached
	// to anomaly warnings alongside it.
	lastBlocking map[string]event.Event

	warnings *warning.Collector
}

// NewTracker returns an empty tracker reporting anomalies to the given
// collector.
func NewTracker(warnings *warning.Collector) *Tracker {
	return &Tracker{
		states:       make(map[string]*State),
		lastBlocking: make(map[string]event.Event),
		warnings:     warnings,
	}
}

// State returns the state for a canonical referee name, creating it in
// StatusNotInvited on first sighting.
func (t *Tracker) State(canonical string) *State {
	if s, ok := t.states[canonical]; ok {
		return s
	}
	s := &State{Referee: canonical, Status: StatusNotInvited}
	t.states[canonical] = s
	t.order = append(t.order, canonical)
	return s
}

// States returns every tracked state in first-seen order.
func (t *Tracker) States() []*State {
	out := make([]*State, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.states[name])
	}
	return out
}

// Apply feeds one classified event, attributed to the named referee, into
// that referee's state machine. Reminders, editorial decisions, and
// status changes never alter referee state. Events with nil timestamps
// still drive transitions but never establish dates.
func (t *Tracker) Apply(canonical string, ev event.Event) {
	s := t.State(canonical)

	switch ev.SemanticType {
	case event.TypeInvitation:
		t.applyInvitation(s, ev)
	case event.TypeAcceptance:
		t.applyAcceptance(s, ev)
	case event.TypeDecline:
		t.applyDecline(s, ev)
	case event.TypeReportSubmission:
		t.applyReport(s, ev)
	}
}

func (t *Tracker) applyInvitation(s *State, ev event.Event) {
	if s.Status == StatusNotInvited {
		s.Status = StatusInvited
	}
	// The earliest invitation wins regardless of how far the referee has
	// progressed since; refining a date is not a transition.
	if ev.Timestamp != nil && (s.InvitedDate == nil || ev.Timestamp.Before(*s.InvitedDate)) {
		s.InvitedDate = copyTime(ev.Timestamp)
	}
}

func (t *Tracker) applyAcceptance(s *State, ev event.Event) {
	if !CanTransition(s.Status, StatusAccepted) {
		if s.Status == StatusDeclined {
			t.anomaly(s, ev, "acceptance after decline")
		}
		return
	}
	s.Status = StatusAccepted
	if s.ResponseDate == nil && ev.Timestamp != nil {
		s.ResponseDate = copyTime(ev.Timestamp)
	}
}

func (t *Tracker) applyDecline(s *State, ev event.Event) {
	if !CanTransition(s.Status, StatusDeclined) {
		if s.Status == StatusAccepted || s.Status == StatusReportSubmitted {
			t.anomaly(s, ev, "decline after acceptance")
		}
		return
	}
	s.Status = StatusDeclined
	if s.ResponseDate == nil && ev.Timestamp != nil {
		s.ResponseDate = copyTime(ev.Timestamp)
	}
	t.lastBlocking[s.Referee] = ev
}

func (t *Tracker) applyReport(s *State, ev event.Event) {
	if s.Status == StatusDeclined {
		t.anomaly(s, ev, "report submitted after decline")
		return
	}
	if s.Status == StatusReportSubmitted {
		return
	}

	// A referee who never explicitly confirmed but delivered a report is
	// treated as having accepted, retroactively.
	if s.Status != StatusAccepted {
		s.Status = StatusAccepted
		if s.ResponseDate == nil && ev.Timestamp != nil {
			s.ResponseDate = copyTime(ev.Timestamp)
		}
	}

	s.Status = StatusReportSubmitted
	if s.ReportDate == nil && ev.Timestamp != nil {
		s.ReportDate = copyTime(ev.Timestamp)
	}
	if rec := extractRecommendation(ev.BodyExcerpt); rec != "" && s.Recommendation == "" {
		s.Recommendation = rec
	}
}

// anomaly logs a forbidden transition with both conflicting events so an
// operator can review them. State is left untouched; the pipeline never
// guesses which event is wrong.
func (t *Tracker) anomaly(s *State, ev event.Event, msg string) {
	if t.warnings == nil {
		return
	}
	w := t.warnings.Add(warning.KindIllegalTransition, s.Referee,
		"%s: %s (state %s)", s.Referee, msg, s.Status)
	if prior, ok := t.lastBlocking[s.Referee]; ok {
		w.Attach(prior)
	}
	w.Attach(ev)
}

// Finalize fills invitation-date gaps with the first-editor-contact
// fallback: a referee known only through a response or report still needs
// an invitation baseline for overdue calculations.
func (t *Tracker) Finalize(firstEditorContact *time.Time) {
	if firstEditorContact == nil {
		return
	}
	for _, name := range t.order {
		s := t.states[name]
		if s.Status != StatusNotInvited && s.InvitedDate == nil {
			s.InvitedDate = copyTime(firstEditorContact)
		}
	}
}

// extractRecommendation pulls a free-text recommendation line out of a
// report email body, if one is present.
func extractRecommendation(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.Contains(strings.ToLower(trimmed), "recommend") {
			return trimmed
		}
	}
	return ""
}
