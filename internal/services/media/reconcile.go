package media

import (
	"github.com/ateliercms/api/internal/imageref"
)

// Plan is the precomputed outcome of reconciling an entity field's image
// references. It is produced as a pure value so the algorithm can be tested
// apart from storage I/O; ApplyPlan executes the deletions afterwards.
type Plan struct {
	// Next is the reference set to persist: retained entries in their
	// original relative order, newly uploaded addresses appended.
	Next []string

	// ToDelete are the existing addresses no longer referenced.
	ToDelete []string
}

// Reconcile computes the next reference set for a gallery field.
//
// retainPresent distinguishes "no instruction" from "retain nothing": when
// false the existing set is preserved untouched; when true, retain entries
// are normalized and intersected with the existing set (unknown entries
// cannot resurrect deleted assets) and everything else is scheduled for
// deletion. Uploaded addresses are appended in upload order.
func Reconcile(existing, retain []string, retainPresent bool, uploaded []string) Plan {
	normExisting := normalizeAll(existing)

	if !retainPresent {
		return Plan{Next: append(normExisting, uploaded...)}
	}

	retained := make(map[string]bool, len(retain))
	for _, r := range retain {
		if n := normalizeOne(r); n != "" {
			retained[n] = true
		}
	}

	var next, toDelete []string
	for _, addr := range normExisting {
		if retained[addr] {
			next = append(next, addr)
		} else {
			toDelete = append(toDelete, addr)
		}
	}

	return Plan{Next: append(next, uploaded...), ToDelete: toDelete}
}

// ReconcilePoster handles the cardinality-one poster field. A new upload
// unconditionally replaces the existing reference; an explicitly empty
// retain value clears the field and deletes the old asset; an omitted field
// leaves the reference untouched.
func ReconcilePoster(existing *string, retain string, retainPresent bool, uploaded string) Plan {
	current := ""
	if existing != nil {
		current = normalizeOne(*existing)
	}

	if uploaded != "" {
		plan := Plan{Next: []string{uploaded}}
		if current != "" {
			plan.ToDelete = []string{current}
		}
		return plan
	}

	if !retainPresent {
		if current != "" {
			return Plan{Next: []string{current}}
		}
		return Plan{}
	}

	if retain == "" {
		if current != "" {
			return Plan{ToDelete: []string{current}}
		}
		return Plan{}
	}

	// Client re-declared the poster; only the existing asset can be kept.
	if normalizeOne(retain) == current && current != "" {
		return Plan{Next: []string{current}}
	}
	if current != "" {
		return Plan{ToDelete: []string{current}}
	}
	return Plan{}
}

// Poster returns the plan's poster value, nil when the field is cleared.
func (p Plan) Poster() *string {
	if len(p.Next) == 0 {
		return nil
	}
	v := p.Next[0]
	return &v
}

func normalizeAll(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if n := normalizeOne(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// normalizeOne canonicalizes a single address. Remote references are
// already canonical URLs and pass through.
func normalizeOne(addr string) string {
	if addr == "" {
		return ""
	}
	if imageref.IsRemote(addr) {
		return addr
	}
	return imageref.Normalize(addr)
}
