// Package classify labels each event's sender with an editorial role and
// assigns the event a semantic type.
//
// Classification is a fixed-priority rule chain over noisy text; it is
// deliberately contained behind one interface so the heuristics can be
// extended without touching the referee state machine.
package classify

import (
	"strings"

	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/identity"
	"github.com/matsen/refline/internal/warning"
)

// EditorStrategy decides whether an event's sender should be bootstrapped
// as the manuscript's editor. The default strategy keys off the manuscript
// file attachment; source systems with an explicit editor field can
// substitute their own.
type EditorStrategy interface {
	IsEditor(ev event.Event, editorKnown bool) bool
}

// AttachmentBootstrap is the default editor strategy: whoever first sends
// the manuscript file is provisionally the editor. Order-dependent and
// fragile, but the best signal a bare mailbox offers.
type AttachmentBootstrap struct {
	// ManuscriptFile is a filename fragment identifying the manuscript
	// PDF, e.g. the manuscript number.
	ManuscriptFile string
}

// IsEditor reports whether the event carries the manuscript file while no
// editor is known yet.
func (s AttachmentBootstrap) IsEditor(ev event.Event, editorKnown bool) bool {
	if editorKnown || s.ManuscriptFile == "" {
		return false
	}
	return ev.HasAttachment(s.ManuscriptFile)
}

// Hints carries prior knowledge handed in by the caller: a provisional
// editor and referees confirmed on an earlier pass.
type Hints struct {
	EditorName   string
	EditorEmail  string
	RefereeNames []string

	// OperatorAddress is the extracting user's own address; self-authored
	// digest mail from it is excluded before classification.
	OperatorAddress string
	// DigestMarkers are subject substrings identifying self-authored
	// summary emails.
	DigestMarkers []string
}

// Classifier labels events against a shared identity registry.
type Classifier struct {
	registry *identity.Registry
	strategy EditorStrategy
	warnings *warning.Collector
	hints    Hints
}

// New builds a classifier, seeding the registry with any known editor and
// referee hints at high confidence.
func New(reg *identity.Registry, strategy EditorStrategy, warnings *warning.Collector, hints Hints) *Classifier {
	c := &Classifier{registry: reg, strategy: strategy, warnings: warnings, hints: hints}

	if hints.EditorName != "" || hints.EditorEmail != "" {
		reg.Resolve(identity.Evidence{
			RawName:    hints.EditorName,
			Email:      strings.ToLower(hints.EditorEmail),
			Role:       event.RoleEditor,
			Confidence: event.ConfidenceHigh,
		})
	}
	for _, name := range hints.RefereeNames {
		reg.Resolve(identity.Evidence{
			RawName:    name,
			Role:       event.RoleReferee,
			Confidence: event.ConfidenceHigh,
		})
	}

	return c
}

// Excluded reports whether the event is a self-authored digest that must
// be dropped before classification.
func (c *Classifier) Excluded(ev event.Event) bool {
	if c.hints.OperatorAddress == "" || !strings.EqualFold(ev.FromAddress, c.hints.OperatorAddress) {
		return false
	}
	subject := strings.ToLower(ev.Subject)
	for _, marker := range c.hints.DigestMarkers {
		if marker != "" && strings.Contains(subject, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Classify resolves the event's sender to a Person and assigns the event
// a semantic type. The priority chain is fixed: known editor, editor
// bootstrap, known referee, referee vocabulary, unknown. First match wins.
func (c *Classifier) Classify(ev event.Event) (*identity.Person, event.Event) {
	editorKnown := len(c.registry.ByRole(event.RoleEditor)) > 0

	// Rule 1: sender is the known editor.
	if p := c.senderPerson(ev); p != nil && p.Role == event.RoleEditor {
		return c.merge(ev, event.RoleEditor, event.ConfidenceHigh), ev.WithSemanticType(SemanticType(ev))
	}

	// Rule 2: editor bootstrap via the pluggable strategy.
	if c.strategy != nil && c.strategy.IsEditor(ev, editorKnown) {
		return c.merge(ev, event.RoleEditor, event.ConfidenceLow), ev.WithSemanticType(SemanticType(ev))
	}

	// Rule 3: sender already resolved as a referee.
	if p := c.senderPerson(ev); p != nil && p.Role == event.RoleReferee {
		return c.merge(ev, event.RoleReferee, event.ConfidenceLow), ev.WithSemanticType(SemanticType(ev))
	}

	// Rule 4: referee vocabulary marks a first sighting, unless the
	// sender is the editor.
	if usesRefereeVocabulary(ev) {
		return c.merge(ev, event.RoleReferee, event.ConfidenceLow), ev.WithSemanticType(SemanticType(ev))
	}

	// Platform audit rows with no personal sender are system records.
	if ev.Source == event.SourcePlatformAudit {
		t := SemanticType(ev)
		if t == event.TypeOther && containsAny(strings.ToLower(ev.Subject+" "+ev.BodyExcerpt), "status") {
			t = event.TypeStatusChange
		}
		return c.merge(ev, event.RoleSystem, event.ConfidenceLow), ev.WithSemanticType(t)
	}

	// Rule 5: no signal.
	return c.merge(ev, event.RoleUnknown, event.ConfidenceLow), ev.WithSemanticType(event.TypeOther)
}

// senderPerson looks the sender up without creating a record.
func (c *Classifier) senderPerson(ev event.Event) *identity.Person {
	if ev.FromAddress != "" {
		if p, ok := c.registry.LookupEmail(ev.FromAddress); ok {
			return p
		}
	}
	if ev.FromDisplayName != "" {
		if p, ok := c.registry.Lookup(ev.FromDisplayName); ok {
			return p
		}
	}
	return nil
}

// merge records the sender in the registry with the decided role,
// emitting a role-conflict warning when the evidence disagrees with a
// confidently held role.
func (c *Classifier) merge(ev event.Event, role event.Role, conf event.Confidence) *identity.Person {
	p, conflict := c.registry.Resolve(identity.Evidence{
		RawName:    ev.FromDisplayName,
		Email:      ev.FromAddress,
		Role:       role,
		Confidence: conf,
	})
	if conflict && c.warnings != nil {
		w := c.warnings.Add(warning.KindRoleConflict, p.CanonicalName,
			"event suggests role %s but %s is confidently %s", role, p.CanonicalName, p.Role)
		w.Attach(ev)
	}
	return p
}

// RefereeRecipients resolves the recipients of an editor-sent invitation
// or reminder as referees: an invitation's target is by construction the
// person being asked to review. Returns the resolved persons in recipient
// order.
func (c *Classifier) RefereeRecipients(ev event.Event) []*identity.Person {
	var out []*identity.Person
	for _, rcpt := range ev.Recipients {
		name, addr := SplitAddress(rcpt)
		if addr != "" && strings.EqualFold(addr, c.hints.OperatorAddress) {
			continue
		}
		if p := c.lookupAny(name, addr); p != nil &&
			(p.Role == event.RoleEditor || p.Role == event.RoleAuthor) {
			continue
		}
		p, _ := c.registry.Resolve(identity.Evidence{
			RawName:    name,
			Email:      addr,
			Role:       event.RoleReferee,
			Confidence: event.ConfidenceLow,
		})
		out = append(out, p)
	}
	return out
}

func (c *Classifier) lookupAny(name, addr string) *identity.Person {
	if addr != "" {
		if p, ok := c.registry.LookupEmail(addr); ok {
			return p
		}
	}
	if name != "" {
		if p, ok := c.registry.Lookup(name); ok {
			return p
		}
	}
	return nil
}

// SplitAddress splits a "Display Name <user@host>" recipient string into
// its name and lower-cased address parts. Bare addresses return an empty
// name.
func SplitAddress(s string) (name, addr string) {
	s = strings.TrimSpace(s)
	if open := strings.Index(s, "<"); open >= 0 {
		if end := strings.Index(s[open:], ">"); end > 0 {
			addr = strings.ToLower(strings.TrimSpace(s[open+1 : open+end]))
			name = strings.TrimSpace(s[:open])
			return name, addr
		}
	}
	if strings.Contains(s, "@") {
		return "", strings.ToLower(s)
	}
	return s, ""
}
