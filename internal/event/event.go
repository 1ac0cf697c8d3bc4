// Package event defines the core domain types for manuscript review events.
package event

import (
	"strings"
	"time"
)

// Source identifies where a raw event record came from.
type Source string

const (
	SourceEmail         Source = "email"
	SourcePlatformAudit Source = "platform_audit"
)

// SemanticType is the classified meaning of an event.
type SemanticType string

const (
	TypeInvitation        SemanticType = "invitation"
	TypeAcceptance        SemanticType = "acceptance"
	TypeDecline           SemanticType = "decline"
	TypeReportSubmission  SemanticType = "report_submission"
	TypeReminder          SemanticType = "reminder"
	TypeEditorialDecision SemanticType = "editorial_decision"
	TypeStatusChange      SemanticType = "status_change"
	TypeOther             SemanticType = "other"
)

// Event is an immutable fact about one manuscript: a single email or
// platform audit-trail row, normalized. Corrections never mutate an Event;
// they derive annotated copies.
type Event struct {
	ID string `json:"id"` // Stable identifier assigned at normalization

	// Timestamp is nil when the raw record's date could not be parsed.
	// Downstream code must treat nil as "unknown position", never as
	// zero time.
	Timestamp *time.Time `json:"timestamp,omitempty"`

	FromAddress     string `json:"from_address"`
	FromDisplayName string `json:"from_display_name"`
	Subject         string `json:"subject"`
	BodyExcerpt     string `json:"body_excerpt"`

	// Recipients holds "Display Name <address>" or bare-address strings.
	Recipients []string `json:"recipients,omitempty"`

	Attachments []string `json:"attachments,omitempty"`

	Source       Source       `json:"source"`
	SemanticType SemanticType `json:"semantic_type"`

	// IngestOrder is the zero-based position of the record in its source
	// batch. It breaks ties and anchors events with nil timestamps.
	IngestOrder int `json:"ingest_order"`
}

// WithSemanticType returns a copy of the event with the classified type set.
func (e Event) WithSemanticType(t SemanticType) Event {
	e.SemanticType = t
	return e
}

// HasAttachment reports whether any attachment filename contains the given
// substring, case-insensitively.
func (e Event) HasAttachment(substr string) bool {
	if substr == "" {
		return false
	}
	needle := strings.ToLower(substr)
	for _, a := range e.Attachments {
		if strings.Contains(strings.ToLower(a), needle) {
			return true
		}
	}
	return false
}

// RawRecord is the unnormalized input handed to this core by the scraping
// and email collaborators. All fields are best-effort strings.
type RawRecord struct {
	Source          Source   `json:"source"`
	Timestamp       string   `json:"timestamp"`
	FromAddress     string   `json:"from_address"`
	FromDisplayName string   `json:"from_display_name"`
	Subject         string   `json:"subject"`
	BodyExcerpt     string   `json:"body_excerpt"`
	Recipients      []string `json:"recipients,omitempty"`
	Attachments     []string `json:"attachments,omitempty"`
}

// Role is a person's function on one manuscript.
type Role string

const (
	RoleEditor  Role = "editor"
	RoleAuthor  Role = "author"
	RoleReferee Role = "referee"
	RoleSystem  Role = "system"
	RoleUnknown Role = "unknown"
)

// Confidence grades how a field value was obtained. A high-confidence value
// is never overwritten by a low-confidence guess.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceHigh
)
