package identity

import (
	"testing"

	"github.com/matsen/refline/internal/event"
)

func TestRegistryFoldsSpellings(t *testing.T) {
	r := NewRegistry()

	p1, _ := r.Resolve(Evidence{RawName: "Smith, John", Role: event.RoleReferee})
	p2, _ := r.Resolve(Evidence{RawName: "John Smith"})

	if p1 != p2 {
		t.Fatalf("expected both spellings to resolve to one person, got %q and %q",
			p1.CanonicalName, p2.CanonicalName)
	}
	if p1.CanonicalName != "John Smith" {
		t.Errorf("canonical name = %q, want %q", p1.CanonicalName, "John Smith")
	}
	if len(p1.RawVariants) != 2 {
		t.Errorf("raw variants = %v, want both observed spellings", p1.RawVariants)
	}
}

func TestRegistryWordSetFold(t *testing.T) {
	r := NewRegistry()

	p1, _ := r.Resolve(Evidence{RawName: "Jo Li"})
	p2, _ := r.Resolve(Evidence{RawName: "Li Jo"})

	// This collapse is intended behavior, not a collision.
	if p1 != p2 {
		t.Fatalf("word-set rule should fold %q and %q", "Jo Li", "Li Jo")
	}
}

func TestRegistryMatchesByEmail(t *testing.T) {
	r := NewRegistry()

	p1, _ := r.Resolve(Evidence{RawName: "J. Smith", Email: "jsmith@uni.edu"})
	p2, _ := r.Resolve(Evidence{RawName: "Prof. Totally Different", Email: "jsmith@uni.edu"})

	if p1 != p2 {
		t.Fatal("same address should resolve to the same person regardless of spelling")
	}
}

func TestMergeKeepsFirstEmail(t *testing.T) {
	r := NewRegistry()

	p, _ := r.Resolve(Evidence{RawName: "John Smith", Email: "jsmith@uni.edu"})
	r.Resolve(Evidence{RawName: "Smith, John", Email: "john.smith@gmail.com"})

	if p.Email != "jsmith@uni.edu" {
		t.Errorf("email = %q, want first non-empty kept", p.Email)
	}
	if len(p.EmailVariants) != 1 || p.EmailVariants[0] != "john.smith@gmail.com" {
		t.Errorf("email variants = %v, want the second address recorded", p.EmailVariants)
	}
}

func TestMergeNeverOverwritesWithEmpty(t *testing.T) {
	r := NewRegistry()

	p, _ := r.Resolve(Evidence{RawName: "John Smith", Email: "jsmith@uni.edu"})
	r.Resolve(Evidence{RawName: "John Smith", Email: ""})

	if p.Email != "jsmith@uni.edu" {
		t.Errorf("email = %q, empty evidence must not clear it", p.Email)
	}
}

func TestMergeRoleUpgrade(t *testing.T) {
	r := NewRegistry()

	p, _ := r.Resolve(Evidence{RawName: "John Smith"})
	if p.Role != event.RoleUnknown {
		t.Fatalf("initial role = %q, want unknown", p.Role)
	}

	r.Resolve(Evidence{RawName: "John Smith", Role: event.RoleReferee})
	if p.Role != event.RoleReferee {
		t.Errorf("role = %q, want upgrade to referee", p.Role)
	}
}

func TestMergeZeroValueRoleIsNotEvidence(t *testing.T) {
	r := NewRegistry()

	// Evidence built without a Role must leave the person Unknown, not
	// assign the empty string.
	p, _ := r.Resolve(Evidence{RawName: "John Smith"})
	r.Resolve(Evidence{RawName: "Smith, John"})
	if p.Role != event.RoleUnknown {
		t.Fatalf("role = %q, want unknown after role-less evidence", p.Role)
	}

	// And it must not disturb a role already assigned.
	r.Resolve(Evidence{RawName: "John Smith", Role: event.RoleReferee})
	r.Resolve(Evidence{RawName: "John Smith"})
	if p.Role != event.RoleReferee {
		t.Errorf("role = %q, role-less evidence must not change it", p.Role)
	}
}

func TestMergeNoConfidentDowngrade(t *testing.T) {
	r := NewRegistry()

	p, _ := r.Resolve(Evidence{
		RawName:    "Ana Duarte",
		Role:       event.RoleEditor,
		Confidence: event.ConfidenceHigh,
	})

	_, conflict := r.Resolve(Evidence{
		RawName:    "Ana Duarte",
		Role:       event.RoleReferee,
		Confidence: event.ConfidenceLow,
	})

	if !conflict {
		t.Error("expected a role conflict to be reported")
	}
	if p.Role != event.RoleEditor {
		t.Errorf("role = %q, confident editor must not be downgraded by a guess", p.Role)
	}
}

func TestMergeHighConfidenceEmailWins(t *testing.T) {
	r := NewRegistry()

	p, _ := r.Resolve(Evidence{
		RawName:    "John Smith",
		Email:      "guessed@host.org",
		Confidence: event.ConfidenceLow,
	})
	r.Resolve(Evidence{
		RawName:    "John Smith",
		Email:      "confirmed@uni.edu",
		Confidence: event.ConfidenceHigh,
	})

	if p.Email != "confirmed@uni.edu" {
		t.Errorf("email = %q, authoritative address should replace the guess", p.Email)
	}
	if len(p.EmailVariants) != 1 || p.EmailVariants[0] != "guessed@host.org" {
		t.Errorf("email variants = %v, want the displaced guess retained", p.EmailVariants)
	}
}

func TestPeopleOrderIsFirstSeen(t *testing.T) {
	r := NewRegistry()
	r.Resolve(Evidence{RawName: "Carol Chen"})
	r.Resolve(Evidence{RawName: "Alan Brown"})
	r.Resolve(Evidence{RawName: "Chen, Carol"}) // Merge, not a new person

	people := r.People()
	if len(people) != 2 {
		t.Fatalf("people = %d, want 2", len(people))
	}
	if people[0].CanonicalName != "Carol Chen" || people[1].CanonicalName != "Alan Brown" {
		t.Errorf("order = [%s, %s], want first-seen order preserved",
			people[0].CanonicalName, people[1].CanonicalName)
	}
}
