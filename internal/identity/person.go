package identity

import (
	"sort"

	"github.com/matsen/refline/internal/event"
)

// Person is one resolved participant on a manuscript. All observed raw
// spellings fold into RawVariants; the canonical spelling never changes
// once assigned.
type Person struct {
	CanonicalName string   `json:"canonical_name"`
	RawVariants   []string `json:"raw_variants,omitempty"` // Sorted, deduplicated
	Email         string   `json:"email,omitempty"`
	EmailVariants []string `json:"email_variants,omitempty"` // Other addresses seen

	Role event.Role `json:"role"`

	// roleConfidence guards Role against downgrades: once a role is set
	// with high confidence it can only be changed by other high-confidence
	// evidence, and never back to Unknown.
	roleConfidence event.Confidence
	// emailConfidence guards Email the same way.
	emailConfidence event.Confidence
}

// Evidence is one observation about a person: a raw name spelling plus
// whatever else the observing event carried.
type Evidence struct {
	RawName    string
	Email      string
	Role       event.Role
	Confidence event.Confidence
}

// Merge folds new evidence into the person. It never overwrites a
// populated field with an empty one, and never overwrites a
// high-confidence value with a low-confidence guess. It reports whether
// the evidence conflicted with a confidently held role.
func (p *Person) Merge(ev Evidence) (roleConflict bool) {
	if ev.RawName != "" {
		p.addVariant(ev.RawName)
	}

	if ev.Email != "" {
		switch {
		case p.Email == "":
			p.Email = ev.Email
			p.emailConfidence = ev.Confidence
		case p.Email != ev.Email:
			if ev.Confidence == event.ConfidenceHigh && p.emailConfidence == event.ConfidenceLow {
				p.EmailVariants = insertSorted(p.EmailVariants, p.Email)
				p.Email = ev.Email
				p.emailConfidence = event.ConfidenceHigh
			} else {
				p.EmailVariants = insertSorted(p.EmailVariants, ev.Email)
			}
		}
	}

	// A zero-value Role carries no evidence, same as an explicit Unknown.
	if ev.Role == "" || ev.Role == event.RoleUnknown || ev.Role == p.Role {
		return false
	}

	switch {
	case p.Role == event.RoleUnknown:
		// Upgrade from Unknown is always allowed.
		p.Role = ev.Role
		p.roleConfidence = ev.Confidence
	case p.roleConfidence == event.ConfidenceLow:
		p.Role = ev.Role
		p.roleConfidence = ev.Confidence
	default:
		// Confidently held role disagrees with new evidence. Keep the
		// held role; the caller decides whether to warn.
		return true
	}

	return false
}

func (p *Person) addVariant(raw string) {
	for _, v := range p.RawVariants {
		if v == raw {
			return
		}
	}
	p.RawVariants = insertSorted(p.RawVariants, raw)
}

func insertSorted(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	list = append(list, s)
	sort.Strings(list)
	return list
}
