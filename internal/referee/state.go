// Package referee tracks each referee's lifecycle on a manuscript as a
// small finite state machine driven by classified events.
package referee

import "time"

// Status represents a referee's position in the review lifecycle.
type Status string

const (
	StatusNotInvited      Status = "not_invited"
	StatusInvited         Status = "invited"
	StatusAccepted        Status = "accepted"
	StatusDeclined        Status = "declined"
	StatusReportSubmitted Status = "report_submitted"
)

// statusRank orders statuses by progress. Transitions may only move to a
// higher rank; Declined is terminal.
var statusRank = map[Status]int{
	StatusNotInvited:      0,
	StatusInvited:         1,
	StatusAccepted:        2,
	StatusDeclined:        2,
	StatusReportSubmitted: 3,
}

// legalTransitions is the referee lifecycle transition table.
var legalTransitions = map[Status][]Status{
	StatusNotInvited: {StatusInvited, StatusAccepted, StatusDeclined},
	StatusInvited:    {StatusAccepted, StatusDeclined},
	StatusAccepted:   {StatusReportSubmitted},
	// Declined and ReportSubmitted are terminal.
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another. NotInvited admits Accepted and Declined directly
// because a response proves an invitation this core never saw.
func CanTransition(from, to Status) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// State is one referee's lifecycle record for one manuscript. Dates are
// nil until an event with a usable timestamp establishes them; the
// chronology repairer and the first-editor-contact fallback fill gaps
// afterwards.
type State struct {
	Referee string `json:"referee"` // Canonical name
	Status  Status `json:"status"`

	InvitedDate  *time.Time `json:"invited_date,omitempty"`
	ResponseDate *time.Time `json:"response_date,omitempty"`
	ReportDate   *time.Time `json:"report_date,omitempty"`

	Recommendation string `json:"recommendation,omitempty"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := *s
	out.InvitedDate = copyTime(s.InvitedDate)
	out.ResponseDate = copyTime(s.ResponseDate)
	out.ReportDate = copyTime(s.ReportDate)
	return &out
}

// Responded reports whether the referee has answered the invitation.
func (s *State) Responded() bool {
	return s.Status == StatusAccepted || s.Status == StatusDeclined ||
		s.Status == StatusReportSubmitted
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
