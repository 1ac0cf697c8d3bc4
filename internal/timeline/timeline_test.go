package timeline

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/matsen/refline/internal/classify"
	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/phase"
	"github.com/matsen/refline/internal/referee"
)

var fixedNow = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

// manuscriptRecords is a realistic single-manuscript history: the editor
// hands off the manuscript, invites two referees, one accepts and
// reports, one declines.
func manuscriptRecords() []event.RawRecord {
	return []event.RawRecord{
		{
			Source:          event.SourceEmail,
			Timestamp:       "Mon, 02 Mar 2026 09:00:00 +0000",
			FromAddress:     "aduarte@journal.org",
			FromDisplayName: "Ana Duarte",
			Subject:         "New assignment: MS-2026-041",
			BodyExcerpt:     "Please handle this submission.",
			Attachments:     []string{"MS-2026-041.pdf"},
			Recipients:      []string{"AE <ae@university.edu>"},
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Tue, 03 Mar 2026 10:00:00 +0000",
			FromAddress:     "aduarte@journal.org",
			FromDisplayName: "Ana Duarte",
			Subject:         "Invitation to review MS-2026-041",
			Recipients:      []string{"Jennifer Lee <jlee@uni.edu>"},
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Tue, 03 Mar 2026 10:05:00 +0000",
			FromAddress:     "aduarte@journal.org",
			FromDisplayName: "Ana Duarte",
			Subject:         "Invitation to review MS-2026-041",
			Recipients:      []string{"Omar Haddad <ohaddad@lab.org>"},
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Thu, 05 Mar 2026 08:30:00 +0000",
			FromAddress:     "jlee@uni.edu",
			FromDisplayName: "Lee, Jennifer",
			Subject:         "Re: Invitation",
			BodyExcerpt:     "I would be happy to review this manuscript.",
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Fri, 06 Mar 2026 16:00:00 +0000",
			FromAddress:     "ohaddad@lab.org",
			FromDisplayName: "Omar Haddad",
			Subject:         "Re: Invitation to review MS-2026-041",
			BodyExcerpt:     "I regret that I am unable to review this.",
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Wed, 25 Mar 2026 11:00:00 +0000",
			FromAddress:     "jlee@uni.edu",
			FromDisplayName: "Jennifer Lee",
			Subject:         "Report submitted for MS-2026-041",
			BodyExcerpt:     "My report is attached. I recommend minor revision.",
			Attachments:     []string{"review.docx"},
		},
		{
			// Self-authored digest, must be excluded.
			Source:      event.SourceEmail,
			Timestamp:   "Thu, 26 Mar 2026 07:00:00 +0000",
			FromAddress: "ae@university.edu",
			Subject:     "Review digest for week 13",
		},
	}
}

func buildOpts() Options {
	return Options{
		Manuscript:     "MS-2026-041",
		ManuscriptFile: "MS-2026-041",
		Hints: classify.Hints{
			OperatorAddress: "ae@university.edu",
			DigestMarkers:   []string{"review digest"},
		},
		Now: fixedNow,
	}
}

func TestBuildFullPipeline(t *testing.T) {
	tl := Build(manuscriptRecords(), buildOpts())

	// The digest is excluded; six events remain.
	if len(tl.Events) != 6 {
		t.Fatalf("events = %d, want 6 after digest exclusion", len(tl.Events))
	}

	lee, ok := tl.Referees["Jennifer Lee"]
	if !ok {
		t.Fatalf("referees = %v, want Jennifer Lee tracked", refereeNames(tl))
	}
	if lee.Status != referee.StatusReportSubmitted {
		t.Errorf("Lee status = %q, want report submitted", lee.Status)
	}
	if lee.InvitedDate == nil || lee.InvitedDate.Day() != 3 {
		t.Errorf("Lee invited = %v, want the March 3 invitation", lee.InvitedDate)
	}
	if lee.Recommendation == "" {
		t.Error("Lee recommendation should be captured from the report body")
	}

	haddad, ok := tl.Referees["Omar Haddad"]
	if !ok {
		t.Fatalf("referees = %v, want Omar Haddad tracked", refereeNames(tl))
	}
	if haddad.Status != referee.StatusDeclined {
		t.Errorf("Haddad status = %q, want declined", haddad.Status)
	}

	if tl.Phase.Name != phase.ReadyForReport {
		t.Errorf("phase = %q, want ready for AE report (all engaged referees reported)", tl.Phase.Name)
	}
	if len(tl.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for a clean history", tl.Warnings)
	}
}

func TestBuildBootstrapsEditor(t *testing.T) {
	tl := Build(manuscriptRecords(), buildOpts())

	for _, p := range tl.People {
		if p.CanonicalName == "Ana Duarte" {
			if p.Role != event.RoleEditor {
				t.Errorf("Duarte role = %q, want editor via manuscript-file bootstrap", p.Role)
			}
			return
		}
	}
	t.Fatalf("people = %v, want Ana Duarte resolved", peopleNames(tl))
}

func TestBuildDeterministic(t *testing.T) {
	a, err := json.Marshal(Build(manuscriptRecords(), buildOpts()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 0; i < 5; i++ {
		b, err := json.Marshal(Build(manuscriptRecords(), buildOpts()))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("run %d produced different bytes", i)
		}
	}
}

func TestBuildNullTimestampPlacement(t *testing.T) {
	records := manuscriptRecords()
	// Wedge an undated acceptance-ish note between the invitations and
	// the responses.
	records = append(records[:3], append([]event.RawRecord{{
		Source:          event.SourceEmail,
		Timestamp:       "date unknown",
		FromAddress:     "jlee@uni.edu",
		FromDisplayName: "Jennifer Lee",
		Subject:         "Quick note",
		BodyExcerpt:     "Looking at it now.",
	}}, records[3:]...)...)

	tl := Build(records, buildOpts())

	pos := -1
	for i, ev := range tl.Events {
		if ev.Subject == "Quick note" {
			pos = i
		}
	}
	if pos != 3 {
		t.Errorf("undated event at %d, want 3 (immediately before its anchor)", pos)
	}
}

func TestBuildImplicitInvitationBaseline(t *testing.T) {
	// Referee appears only via a report; the invitation baseline falls
	// back to first editor contact.
	records := []event.RawRecord{
		{
			Source:          event.SourceEmail,
			Timestamp:       "Mon, 02 Mar 2026 09:00:00 +0000",
			FromAddress:     "aduarte@journal.org",
			FromDisplayName: "Ana Duarte",
			Subject:         "Assignment",
			Attachments:     []string{"MS-2026-041.pdf"},
		},
		{
			Source:          event.SourceEmail,
			Timestamp:       "Wed, 25 Mar 2026 11:00:00 +0000",
			FromAddress:     "ghost@uni.edu",
			FromDisplayName: "Grace Host",
			Subject:         "Report attached",
			BodyExcerpt:     "I have attached my report.",
		},
	}

	tl := Build(records, buildOpts())

	s, ok := tl.Referees["Grace Host"]
	if !ok {
		t.Fatalf("referees = %v, want Grace Host", refereeNames(tl))
	}
	if s.InvitedDate == nil || s.InvitedDate.Day() != 2 {
		t.Errorf("invited = %v, want first-editor-contact fallback (March 2)", s.InvitedDate)
	}
	if s.Status != referee.StatusReportSubmitted {
		t.Errorf("status = %q, want report submitted via implicit acceptance", s.Status)
	}
}

func TestMergeRecordsDeduplicates(t *testing.T) {
	primary := manuscriptRecords()

	// Secondary pass re-scrapes two primary records and adds one new
	// audit row.
	secondary := []event.RawRecord{
		primary[1],
		primary[3],
		{
			Source:      event.SourcePlatformAudit,
			Timestamp:   "06-Mar-2026",
			FromAddress: "platform@journal.org",
			Subject:     "Agreed to review",
			Recipients:  []string{"Jennifer Lee <jlee@uni.edu>"},
		},
	}

	merged := MergeRecords(primary, secondary)
	if len(merged) != len(primary)+1 {
		t.Fatalf("merged = %d records, want %d (duplicates dropped)", len(merged), len(primary)+1)
	}

	// Re-running the pipeline over the merged batch keeps the state
	// machine results stable.
	tl := Build(merged, buildOpts())
	if tl.Referees["Jennifer Lee"].Status != referee.StatusReportSubmitted {
		t.Errorf("Lee status = %q after merge, want report submitted", tl.Referees["Jennifer Lee"].Status)
	}
	if tl.Phase.Name != phase.ReadyForReport {
		t.Errorf("phase = %q after merge, want ready for AE report", tl.Phase.Name)
	}
}

func refereeNames(tl *Timeline) []string {
	var names []string
	for name := range tl.Referees {
		names = append(names, name)
	}
	return names
}

func peopleNames(tl *Timeline) []string {
	var names []string
	for _, p := range tl.People {
		names = append(names, p.CanonicalName)
	}
	return names
}
