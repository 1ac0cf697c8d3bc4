package classify

import (
	"strings"

	"github.com/matsen/refline/internal/event"
)

// keywordRule maps subject/body vocabulary to a semantic type. Rules are
// evaluated in order and the first match wins; this fixed order is what
// makes classification deterministic.
type keywordRule struct {
	semanticType event.SemanticType
	match        func(subject, body string) bool
}

// keywordTable is the classification table for review correspondence.
// All matching is case-insensitive substring matching over the subject
// and body excerpt.
var keywordTable = []keywordRule{
	{event.TypeInvitation, func(s, b string) bool {
		// A reply keeps the invitation's subject line; the sender is
		// responding to the invitation, not issuing one. Skip the row so
		// the acceptance/decline rows below get to look at the body.
		if isReply(s) {
			return false
		}
		t := s + " " + b
		return strings.Contains(t, "invitation") && strings.Contains(t, "review")
	}},
	{event.TypeAcceptance, func(s, b string) bool {
		t := s + " " + b
		return containsAny(t,
			"agree to review", "agreed to review", "accept the invitation",
			"happy to review", "happy to referee", "agree to referee",
			"agreed to referee", "willing to review", "accept to review")
	}},
	{event.TypeDecline, func(s, b string) bool {
		t := s + " " + b
		return containsAny(t, "decline", "unable to review", "regret")
	}},
	{event.TypeReportSubmission, func(s, b string) bool {
		t := s + " " + b
		return strings.Contains(t, "report") &&
			(strings.Contains(t, "submitted") || strings.Contains(t, "attached"))
	}},
	{event.TypeReminder, func(s, b string) bool {
		return strings.Contains(s+" "+b, "reminder")
	}},
	{event.TypeEditorialDecision, func(s, b string) bool {
		// Decision wording only counts in the subject; bodies mention
		// "decision" far too casually.
		return strings.Contains(s, "decision")
	}},
}

// refereeVocabulary is the wording that marks a sender as a referee on
// first sighting, per the classifier's rule 4.
var refereeVocabulary = []string{
	"agree to review",
	"happy to referee",
	"happy to review",
	"attached my report",
	"my review is attached",
	"unable to review",
	"decline",
}

// SemanticType classifies an event's subject and body against the keyword
// table. Events matching no rule are TypeOther.
func SemanticType(ev event.Event) event.SemanticType {
	subject := strings.ToLower(ev.Subject)
	body := strings.ToLower(ev.BodyExcerpt)
	for _, rule := range keywordTable {
		if rule.match(subject, body) {
			return rule.semanticType
		}
	}
	return event.TypeOther
}

// usesRefereeVocabulary reports whether the event reads like a referee
// acting on an invitation.
func usesRefereeVocabulary(ev event.Event) bool {
	t := strings.ToLower(ev.Subject + " " + ev.BodyExcerpt)
	return containsAny(t, refereeVocabulary...)
}

// isReply reports whether a lower-cased subject is a reply to an earlier
// message. Forwards are not replies: a forwarded invitation still issues
// an invitation.
func isReply(subject string) bool {
	return strings.HasPrefix(strings.TrimSpace(subject), "re:")
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
