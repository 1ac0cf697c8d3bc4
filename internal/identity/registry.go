package identity

import (
	"github.com/matsen/refline/internal/event"
)

// Registry owns every Person resolved for one manuscript. All person
// mutation goes through Resolve and Merge so the matching and
// no-downgrade rules are enforced in one place. A Registry is scoped to a
// single manuscript and is not safe for concurrent use.
type Registry struct {
	// people holds persons in first-seen order; order is part of the
	// deterministic output contract, so no map iteration here.
	people []*Person

	byCanonical map[string]*Person
	byWordSet   map[string]*Person
	byEmail     map[string]*Person
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCanonical: make(map[string]*Person),
		byWordSet:   make(map[string]*Person),
		byEmail:     make(map[string]*Person),
	}
}

// Resolve finds or creates the Person for the given evidence and merges
// the evidence into it. Matching tries email first (an address is a
// stronger identity signal than a spelling), then canonical name, then
// the word-set rule. It reports the person and whether the merge hit a
// role conflict.
func (r *Registry) Resolve(ev Evidence) (*Person, bool) {
	p := r.lookup(ev.RawName, ev.Email)
	if p == nil {
		p = &Person{
			CanonicalName: Canonical(ev.RawName),
			Role:          event.RoleUnknown,
		}
		if p.CanonicalName == "" && ev.Email != "" {
			// Address-only sender; the address is the best name we have.
			p.CanonicalName = ev.Email
		}
		r.people = append(r.people, p)
		r.index(p)
	}

	conflict := p.Merge(ev)
	r.index(p) // New variants or emails may add index keys
	return p, conflict
}

// Lookup returns the Person a raw name resolves to, if any.
func (r *Registry) Lookup(rawName string) (*Person, bool) {
	p := r.lookup(rawName, "")
	return p, p != nil
}

// LookupEmail returns the Person with the given address, if any.
func (r *Registry) LookupEmail(email string) (*Person, bool) {
	p, ok := r.byEmail[email]
	return p, ok
}

// People returns every resolved person in first-seen order.
func (r *Registry) People() []*Person {
	return r.people
}

// ByRole returns every person holding the given role, in first-seen order.
func (r *Registry) ByRole(role event.Role) []*Person {
	var out []*Person
	for _, p := range r.people {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) lookup(rawName, email string) *Person {
	if email != "" {
		if p, ok := r.byEmail[email]; ok {
			return p
		}
	}

	canonical := Canonical(rawName)
	if canonical == "" {
		return nil
	}
	if p, ok := r.byCanonical[canonical]; ok {
		return p
	}
	if key := wordSetKey(canonical); key != "" {
		if p, ok := r.byWordSet[key]; ok {
			return p
		}
	}
	return nil
}

func (r *Registry) index(p *Person) {
	if p.CanonicalName != "" {
		r.byCanonical[p.CanonicalName] = p
		if key := wordSetKey(p.CanonicalName); key != "" {
			r.byWordSet[key] = p
		}
	}
	if p.Email != "" {
		r.byEmail[p.Email] = p
	}
	for _, e := range p.EmailVariants {
		r.byEmail[e] = p
	}
}
