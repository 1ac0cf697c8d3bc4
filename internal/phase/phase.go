// Package phase reduces a manuscript's referee states to one editorial
// phase with a recommended next action.
package phase

import (
	"time"

	"github.com/matsen/refline/internal/referee"
)

// Name identifies an editorial phase.
type Name string

const (
	FindingReferees     Name = "Finding Referees"
	AwaitingResponses   Name = "Awaiting Referee Responses"
	AllRefereesDeclined Name = "All Referees Declined"
	AwaitingReports     Name = "Awaiting Reports"
	ReadyForReport      Name = "Ready for AE Report"
)

// Urgency grades how soon the AE should act.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Phase is the derived editorial state of a whole manuscript. It is
// recomputed on demand and never persisted as ground truth.
type Phase struct {
	Name            Name     `json:"name"`
	Action          string   `json:"action"`
	Urgency         Urgency  `json:"urgency"`
	DaysInPhase     *int     `json:"days_in_phase,omitempty"`
	OverdueReferees []string `json:"overdue_referees,omitempty"`
}

// Thresholds holds the overdue limits. They are configuration, not magic
// numbers in the derivation itself.
type Thresholds struct {
	ResponseOverdueDays int `yaml:"response_overdue_days" json:"response_overdue_days"`
	ReportOverdueDays   int `yaml:"report_overdue_days" json:"report_overdue_days"`
}

// DefaultThresholds returns the stock overdue limits: two weeks to answer
// an invitation, thirty days to deliver a report.
func DefaultThresholds() Thresholds {
	return Thresholds{ResponseOverdueDays: 14, ReportOverdueDays: 30}
}

// Derive reduces the referee states to a single phase. The decision table
// is evaluated top to bottom and the first matching rule wins. The caller
// supplies now so derivation stays a pure function.
func Derive(states []*referee.State, now time.Time, th Thresholds) Phase {
	p := derivePhase(states, now)
	p.OverdueReferees = overdue(states, now, th)
	return p
}

func derivePhase(states []*referee.State, now time.Time) Phase {
	// Rule 1: nobody to review yet.
	if len(states) == 0 {
		return Phase{
			Name:    FindingReferees,
			Action:  "Invite referees",
			Urgency: UrgencyHigh,
		}
	}

	var (
		outstanding     []*referee.State // Invited or NotInvited, no response
		declined        int
		engaged         []*referee.State // Accepted or ReportSubmitted
		pendingReports  []*referee.State // Accepted, report still out
		reportsReceived int
	)
	for _, s := range states {
		switch s.Status {
		case referee.StatusNotInvited, referee.StatusInvited:
			outstanding = append(outstanding, s)
		case referee.StatusDeclined:
			declined++
		case referee.StatusAccepted:
			engaged = append(engaged, s)
			pendingReports = append(pendingReports, s)
		case referee.StatusReportSubmitted:
			engaged = append(engaged, s)
			reportsReceived++
		}
	}

	// Rule 2: any referee still owes a response.
	if len(outstanding) > 0 {
		return Phase{
			Name:        AwaitingResponses,
			Action:      "Wait for responses; remind or replace unresponsive referees",
			Urgency:     UrgencyMedium,
			DaysInPhase: daysSince(latestInvitation(outstanding), now),
		}
	}

	// Rule 3: every referee said no.
	if declined == len(states) {
		return Phase{
			Name:    AllRefereesDeclined,
			Action:  "Find replacement referees",
			Urgency: UrgencyHigh,
		}
	}

	// Rule 4: at least one accepted referee still owes a report. A lone
	// engaged referee is a single point of failure, so urgency rises.
	if len(pendingReports) > 0 {
		urgency := UrgencyMedium
		if len(engaged) == 1 {
			urgency = UrgencyHigh
		}
		return Phase{
			Name:        AwaitingReports,
			Action:      "Wait for outstanding reports",
			Urgency:     urgency,
			DaysInPhase: daysSince(latestResponse(pendingReports), now),
		}
	}

	// Rule 5: every engaged referee has delivered.
	return Phase{
		Name:        ReadyForReport,
		Action:      "Write recommendation and send to editor",
		Urgency:     UrgencyHigh,
		DaysInPhase: daysSince(latestReport(states), now),
	}
}

// overdue lists referees past the configured limits, in state order:
// invited without response past the response limit, accepted without
// report past the report limit.
func overdue(states []*referee.State, now time.Time, th Thresholds) []string {
	var names []string
	for _, s := range states {
		switch s.Status {
		case referee.StatusInvited:
			if pastLimit(s.InvitedDate, now, th.ResponseOverdueDays) {
				names = append(names, s.Referee)
			}
		case referee.StatusAccepted:
			baseline := s.ResponseDate
			if baseline == nil {
				baseline = s.InvitedDate
			}
			if pastLimit(baseline, now, th.ReportOverdueDays) {
				names = append(names, s.Referee)
			}
		}
	}
	return names
}

func pastLimit(t *time.Time, now time.Time, limitDays int) bool {
	return t != nil && now.Sub(*t) > time.Duration(limitDays)*24*time.Hour
}

func latestInvitation(states []*referee.State) *time.Time {
	var latest *time.Time
	for _, s := range states {
		if s.InvitedDate != nil && (latest == nil || s.InvitedDate.After(*latest)) {
			latest = s.InvitedDate
		}
	}
	return latest
}

func latestResponse(states []*referee.State) *time.Time {
	var latest *time.Time
	for _, s := range states {
		if s.ResponseDate != nil && (latest == nil || s.ResponseDate.After(*latest)) {
			latest = s.ResponseDate
		}
	}
	return latest
}

func latestReport(states []*referee.State) *time.Time {
	var latest *time.Time
	for _, s := range states {
		if s.ReportDate != nil && (latest == nil || s.ReportDate.After(*latest)) {
			latest = s.ReportDate
		}
	}
	return latest
}

func daysSince(t *time.Time, now time.Time) *int {
	if t == nil {
		return nil
	}
	d := int(now.Sub(*t).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return &d
}
