// Package chronology repairs date orderings that unreliable source
// timestamps made logically impossible.
//
// The target invariant is invited ≤ response ≤ report whenever the dates
// are present. Repair is a pure function of the state it is given:
// running it twice produces the same output as running it once.
package chronology

import (
	"time"

	"github.com/matsen/refline/internal/referee"
)

// Move records one date the repairer changed, for warning thresholds and
// operator review.
type Move struct {
	Referee string    `json:"referee"`
	Field   string    `json:"field"` // invited_date, response_date
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

// Days returns the absolute size of the move in days.
func (m Move) Days() int {
	d := m.To.Sub(m.From)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// Repair returns a repaired copy of the state along with every date move
// it made. The input is never mutated.
//
// Rules run in a fixed order: pull the invitation back before its own
// consequences, clamp the response to the report, advance the invitation
// to the first editor contact where the recorded one predates it, then
// re-run the first rule once. Three ordered fields guarantee a fixed
// point within that second pass.
func Repair(s *referee.State, firstEditorContact *time.Time) (*referee.State, []Move) {
	out := s.Clone()

	repairInvited(out)
	repairResponse(out)

	// The editor cannot have invited a referee before first contacting
	// the referee thread at all.
	if firstEditorContact != nil && out.InvitedDate != nil &&
		out.InvitedDate.Before(*firstEditorContact) {
		t := *firstEditorContact
		out.InvitedDate = &t
	}

	repairInvited(out)

	return out, diff(s, out)
}

// repairInvited enforces that the invitation does not postdate its own
// consequences, resetting it to the earlier of the two when it does.
func repairInvited(s *referee.State) {
	if s.InvitedDate == nil {
		return
	}
	earliest := earlierOf(s.ResponseDate, s.ReportDate)
	if earliest != nil && s.InvitedDate.After(*earliest) {
		t := *earliest
		s.InvitedDate = &t
	}
}

// repairResponse clamps a response recorded after the report it answers
// for; a report proves the response happened no later.
func repairResponse(s *referee.State) {
	if s.ResponseDate != nil && s.ReportDate != nil && s.ResponseDate.After(*s.ReportDate) {
		t := *s.ReportDate
		s.ResponseDate = &t
	}
}

func earlierOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Before(*b):
		return a
	default:
		return b
	}
}

func diff(before, after *referee.State) []Move {
	var moves []Move
	fields := []struct {
		name string
		from *time.Time
		to   *time.Time
	}{
		{"invited_date", before.InvitedDate, after.InvitedDate},
		{"response_date", before.ResponseDate, after.ResponseDate},
		{"report_date", before.ReportDate, after.ReportDate},
	}
	for _, f := range fields {
		if f.from != nil && f.to != nil && !f.from.Equal(*f.to) {
			moves = append(moves, Move{
				Referee: before.Referee,
				Field:   f.name,
				From:    *f.from,
				To:      *f.to,
			})
		}
	}
	return moves
}
