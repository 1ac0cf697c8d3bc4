package classify

import (
	"testing"

	"github.com/matsen/refline/internal/event"
	"github.com/matsen/refline/internal/identity"
	"github.com/matsen/refline/internal/warning"
)

func TestSemanticTypeTable(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    event.SemanticType
	}{
		{
			name:    "invitation needs both words",
			subject: "Invitation to review MS-2026-041",
			want:    event.TypeInvitation,
		},
		{
			name: "acceptance wording",
			body: "I would be happy to review this manuscript.",
			want: event.TypeAcceptance,
		},
		{
			name: "referee variant of acceptance",
			body: "Yes, I agree to referee the paper.",
			want: event.TypeAcceptance,
		},
		{
			name: "decline",
			body: "I regret that I must turn this one down.",
			want: event.TypeDecline,
		},
		{
			name: "unable to review",
			body: "I am unable to review at this time.",
			want: event.TypeDecline,
		},
		{
			name:    "report submitted",
			subject: "Review report submitted for MS-2026-041",
			want:    event.TypeReportSubmission,
		},
		{
			name: "report attached",
			body: "Please find my report attached.",
			want: event.TypeReportSubmission,
		},
		{
			name:    "reminder",
			subject: "Reminder: review due next week",
			want:    event.TypeReminder,
		},
		{
			name:    "decision only counts in subject",
			subject: "Decision on your manuscript",
			want:    event.TypeEditorialDecision,
		},
		{
			name: "decision in body alone is not a decision",
			body: "We hope to reach a decision soon.",
			want: event.TypeOther,
		},
		{
			name:    "table order: invitation row beats acceptance row",
			subject: "Invitation to review",
			body:    "We would be delighted if you agree to review.",
			want:    event.TypeInvitation,
		},
		{
			name:    "reply keeping invitation subject is not an invitation",
			subject: "Re: Invitation to review MS-2026-041",
			body:    "I would be happy to review this manuscript.",
			want:    event.TypeAcceptance,
		},
		{
			name:    "decline in reply to the invitation",
			subject: "Re: Invitation to review MS-2026-041",
			body:    "I regret that I am unable to review this.",
			want:    event.TypeDecline,
		},
		{
			name:    "report in reply to the invitation",
			subject: "Re: Invitation to review MS-2026-041",
			body:    "My report is attached.",
			want:    event.TypeReportSubmission,
		},
		{
			name:    "forwarded invitation still invites",
			subject: "Fwd: Invitation to review MS-2026-041",
			want:    event.TypeInvitation,
		},
		{
			name: "no signal",
			body: "See you at the conference.",
			want: event.TypeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SemanticType(event.Event{Subject: tt.subject, BodyExcerpt: tt.body})
			if got != tt.want {
				t.Errorf("SemanticType(%q, %q) = %q, want %q", tt.subject, tt.body, got, tt.want)
			}
		})
	}
}

func newTestClassifier(hints Hints, file string) (*Classifier, *identity.Registry, *warning.Collector) {
	reg := identity.NewRegistry()
	w := warning.NewCollector()
	c := New(reg, AttachmentBootstrap{ManuscriptFile: file}, w, hints)
	return c, reg, w
}

func TestClassifyKnownEditorWinsFirst(t *testing.T) {
	c, _, _ := newTestClassifier(Hints{
		EditorName:  "Ana Duarte",
		EditorEmail: "aduarte@journal.org",
	}, "")

	// Even with referee vocabulary in the body, the known editor stays
	// the editor.
	p, typed := c.Classify(event.Event{
		FromAddress: "aduarte@journal.org",
		BodyExcerpt: "Dr. Lee has agreed to review the manuscript.",
	})

	if p.Role != event.RoleEditor {
		t.Errorf("role = %q, want editor (rule 1 wins over rule 4)", p.Role)
	}
	if typed.SemanticType != event.TypeAcceptance {
		t.Errorf("semantic type = %q, want acceptance from the table", typed.SemanticType)
	}
}

func TestClassifyEditorBootstrap(t *testing.T) {
	c, _, _ := newTestClassifier(Hints{}, "MS-2026-041")

	p, _ := c.Classify(event.Event{
		FromAddress:     "someone@journal.org",
		FromDisplayName: "Ana Duarte",
		Subject:         "New assignment",
		Attachments:     []string{"MS-2026-041.pdf"},
	})

	if p.Role != event.RoleEditor {
		t.Errorf("role = %q, want editor via manuscript-file bootstrap", p.Role)
	}

	// A second manuscript-file sender must not displace the editor.
	p2, _ := c.Classify(event.Event{
		FromAddress:     "author@uni.edu",
		FromDisplayName: "Sam Author",
		Attachments:     []string{"MS-2026-041.pdf"},
	})
	if p2.Role == event.RoleEditor {
		t.Error("bootstrap must only fire while no editor is known")
	}
}

func TestClassifyRefereeFirstSighting(t *testing.T) {
	c, reg, _ := newTestClassifier(Hints{}, "")

	p, typed := c.Classify(event.Event{
		FromAddress:     "jlee@uni.edu",
		FromDisplayName: "Jennifer Lee",
		BodyExcerpt:     "I would be happy to referee this manuscript.",
	})

	if p.Role != event.RoleReferee {
		t.Errorf("role = %q, want referee on first sighting of referee vocabulary", p.Role)
	}
	if typed.SemanticType != event.TypeAcceptance {
		t.Errorf("semantic type = %q, want acceptance", typed.SemanticType)
	}

	// Later mail from the same person is recognized by rule 3 even
	// without referee vocabulary.
	p2, _ := c.Classify(event.Event{
		FromAddress: "jlee@uni.edu",
		BodyExcerpt: "Quick question about the figures.",
	})
	if p2 != p {
		t.Fatal("same address should resolve to the same person")
	}
	if p2.Role != event.RoleReferee {
		t.Errorf("role = %q, want referee retained", p2.Role)
	}
	if _, ok := reg.Lookup("Lee Jennifer"); !ok {
		t.Error("word-set lookup should find the referee under reversed name order")
	}
}

func TestClassifyUnknownFallback(t *testing.T) {
	c, _, _ := newTestClassifier(Hints{}, "")

	p, typed := c.Classify(event.Event{
		FromAddress: "stranger@example.com",
		Subject:     "Conference invitation talk",
	})

	if p.Role != event.RoleUnknown {
		t.Errorf("role = %q, want unknown", p.Role)
	}
	if typed.SemanticType != event.TypeOther {
		t.Errorf("semantic type = %q, want other for rule 5", typed.SemanticType)
	}
}

func TestClassifyPlatformAuditStatusChange(t *testing.T) {
	c, _, _ := newTestClassifier(Hints{}, "")

	p, typed := c.Classify(event.Event{
		Source:      event.SourcePlatformAudit,
		FromAddress: "noreply@platform.example",
		Subject:     "Manuscript status updated",
	})

	if p.Role != event.RoleSystem {
		t.Errorf("role = %q, want system for audit rows", p.Role)
	}
	if typed.SemanticType != event.TypeStatusChange {
		t.Errorf("semantic type = %q, want status change", typed.SemanticType)
	}
}

func TestExcludedDigest(t *testing.T) {
	c, _, _ := newTestClassifier(Hints{
		OperatorAddress: "ae@university.edu",
		DigestMarkers:   []string{"review digest"},
	}, "")

	tests := []struct {
		name string
		ev   event.Event
		want bool
	}{
		{
			name: "operator digest excluded",
			ev: event.Event{
				FromAddress: "ae@university.edu",
				Subject:     "Weekly review digest: MS-2026-041",
			},
			want: true,
		},
		{
			name: "operator non-digest kept",
			ev: event.Event{
				FromAddress: "ae@university.edu",
				Subject:     "Fwd: referee report",
			},
			want: false,
		},
		{
			name: "digest subject from someone else kept",
			ev: event.Event{
				FromAddress: "other@host.org",
				Subject:     "review digest",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Excluded(tt.ev); got != tt.want {
				t.Errorf("Excluded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantAddr string
	}{
		{"Jennifer Lee <JLee@uni.edu>", "Jennifer Lee", "jlee@uni.edu"},
		{"jlee@uni.edu", "", "jlee@uni.edu"},
		{"Jennifer Lee", "Jennifer Lee", ""},
		{"  <x@y.z>  ", "", "x@y.z"},
	}

	for _, tt := range tests {
		name, addr := SplitAddress(tt.input)
		if name != tt.wantName || addr != tt.wantAddr {
			t.Errorf("SplitAddress(%q) = (%q, %q), want (%q, %q)",
				tt.input, name, addr, tt.wantName, tt.wantAddr)
		}
	}
}
