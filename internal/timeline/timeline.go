// Package timeline assembles a manuscript's full review timeline: it runs
// normalization, classification, identity resolution, referee tracking,
// chronology repair, and phase derivation over one manuscript's raw event
// records.
package timeline

import (
	"time"

	"github.com/matsen/refline/internal/chronology"
	"github.com/matsen/refline/internal/classify"
	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/identity"
	"github.com/matsen/refline/internal/normalize"
	"github.com/matsen/refline/internal/phase"
	"github.com/matsen/refline/internal/referee"
	"github.com/matsen/refline/internal/warning"
)

// Options configures one manuscript build.
type Options struct {
	// Manuscript is the caller's identifier for the manuscript.
	Manuscript string

	// ManuscriptFile is a filename fragment identifying the manuscript
	// PDF; it drives the default editor-bootstrap strategy.
	ManuscriptFile string

	// Hints carries the known editor and confirmed referees from a prior
	// pass.
	Hints classify.Hints

	// Strategy overrides the default attachment-based editor bootstrap.
	Strategy classify.EditorStrategy

	Thresholds phase.Thresholds

	// RepairWarnDays is how far a chronology repair may move a date
	// before it is worth an operator warning. Zero means the default of
	// 90 days.
	RepairWarnDays int

	// Now anchors days-in-phase and overdue calculations. Zero means
	// time.Now, which callers wanting deterministic output must avoid.
	Now time.Time
}

const defaultRepairWarnDays = 90

// Timeline is the assembled result for one manuscript: ordered events,
// resolved people, per-referee states, the derived phase, and everything
// the pipeline wants an operator to look at.
type Timeline struct {
	Manuscript string `json:"manuscript"`

	// Events in repaired chronological order (see Order for the rule).
	Events []event.Event `json:"events"`

	// Referees maps canonical referee name to lifecycle state.
	Referees map[string]*referee.State `json:"referees"`

	// People is everyone resolved on this manuscript, first-seen order.
	People []*identity.Person `json:"people"`

	Phase phase.Phase `json:"phase"`

	Warnings []warning.Warning   `json:"warnings,omitempty"`
	Failures []normalize.Failure `json:"parse_failures,omitempty"`
}

// Build runs the full pipeline over one manuscript's raw records.
// Processing is single-threaded and pure given identical inputs and a
// fixed Options.Now; independent manuscripts can be built in parallel.
func Build(records []event.RawRecord, opts Options) *Timeline {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.RepairWarnDays == 0 {
		opts.RepairWarnDays = defaultRepairWarnDays
	}
	if opts.Thresholds == (phase.Thresholds{}) {
		opts.Thresholds = phase.DefaultThresholds()
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = classify.AttachmentBootstrap{ManuscriptFile: opts.ManuscriptFile}
	}

	events, failures := normalize.All(records)
	events = Order(events)

	warnings := warning.NewCollector()
	registry := identity.NewRegistry()
	classifier := classify.New(registry, strategy, warnings, opts.Hints)
	tracker := referee.NewTracker(warnings)

	var firstEditorContact *time.Time
	ordered := make([]event.Event, 0, len(events))

	for _, ev := range events {
		if classifier.Excluded(ev) {
			continue
		}

		person, typed := classifier.Classify(ev)
		ordered = append(ordered, typed)

		switch person.Role {
		case event.RoleReferee:
			tracker.Apply(person.CanonicalName, typed)
		case event.RoleEditor:
			if typed.Timestamp != nil &&
				(firstEditorContact == nil || typed.Timestamp.Before(*firstEditorContact)) {
				t := *typed.Timestamp
				firstEditorContact = &t
			}
			applyToRecipients(classifier, tracker, typed)
		case event.RoleSystem:
			applyToRecipients(classifier, tracker, typed)
		}
	}

	tracker.Finalize(firstEditorContact)

	referees := make(map[string]*referee.State, len(tracker.States()))
	for _, s := range tracker.States() {
		repaired, moves := chronology.Repair(s, firstEditorContact)
		for _, m := range moves {
			if m.Days() > opts.RepairWarnDays {
				warnings.Add(warning.KindChronologyRepair, m.Referee,
					"%s for %s moved %d days (%s -> %s); source timestamp is suspect",
					m.Field, m.Referee, m.Days(),
					m.From.Format("2006-01-02"), m.To.Format("2006-01-02"))
			}
		}
		referees[repaired.Referee] = repaired
	}

	states := make([]*referee.State, 0, len(tracker.States()))
	for _, s := range tracker.States() {
		states = append(states, referees[s.Referee])
	}

	return &Timeline{
		Manuscript: opts.Manuscript,
		Events:     ordered,
		Referees:   referees,
		People:     registry.People(),
		Phase:      phase.Derive(states, opts.Now, opts.Thresholds),
		Warnings:   warnings.All(),
		Failures:   failures,
	}
}

// applyToRecipients attributes an editor-sent or platform-recorded event
// to the referees it touches. Invitations and platform lifecycle rows
// drive state; reminders and decisions resolve recipients but change
// nothing.
func applyToRecipients(c *classify.Classifier, t *referee.Tracker, ev event.Event) {
	switch ev.SemanticType {
	case event.TypeInvitation, event.TypeReminder:
		for _, p := range c.RefereeRecipients(ev) {
			t.Apply(p.CanonicalName, ev)
		}
	case event.TypeAcceptance, event.TypeDecline, event.TypeReportSubmission:
		if ev.Source != event.SourcePlatformAudit {
			return
		}
		for _, p := range c.RefereeRecipients(ev) {
			t.Apply(p.CanonicalName, ev)
		}
	}
}
