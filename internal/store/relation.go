package store

import "slices"

// Index is a bidirectional many-to-many association between two identifier
// kinds. Both directions are held explicitly and updated together, so
// lookups from either side are always mutually consistent. Edges are never
// pruned when an endpoint is soft-deleted; consumers dereferencing an edge
// filter by Existence themselves.
type Index[L ~int64, R ~int64] struct {
	forward map[L]map[R]struct{}
	reverse map[R]map[L]struct{}
}

// NewIndex returns an empty index.
func NewIndex[L ~int64, R ~int64]() Index[L, R] {
	return Index[L, R]{
		forward: make(map[L]map[R]struct{}),
		reverse: make(map[R]map[L]struct{}),
	}
}

// Clone returns a deep copy of the index.
func (ix Index[L, R]) Clone() Index[L, R] {
	cp := NewIndex[L, R]()
	for l, rs := range ix.forward {
		set := make(map[R]struct{}, len(rs))
		for r := range rs {
			set[r] = struct{}{}
		}
		cp.forward[l] = set
	}
	for r, ls := range ix.reverse {
		set := make(map[L]struct{}, len(ls))
		for l := range ls {
			set[l] = struct{}{}
		}
		cp.reverse[r] = set
	}
	return cp
}

// Link records the edge in both directions. Linking an existing edge is a
// no-op.
func (ix Index[L, R]) Link(l L, r R) {
	if _, ok := ix.forward[l]; !ok {
		ix.forward[l] = make(map[R]struct{})
	}
	ix.forward[l][r] = struct{}{}
	if _, ok := ix.reverse[r]; !ok {
		ix.reverse[r] = make(map[L]struct{})
	}
	ix.reverse[r][l] = struct{}{}
}

// Unlink removes the edge from both directions. Unlinking a missing edge is
// a no-op.
func (ix Index[L, R]) Unlink(l L, r R) {
	if rs, ok := ix.forward[l]; ok {
		delete(rs, r)
		if len(rs) == 0 {
			delete(ix.forward, l)
		}
	}
	if ls, ok := ix.reverse[r]; ok {
		delete(ls, l)
		if len(ls) == 0 {
			delete(ix.reverse, r)
		}
	}
}

// Linked reports whether the edge exists.
func (ix Index[L, R]) Linked(l L, r R) bool {
	_, ok := ix.forward[l][r]
	return ok
}

// RightOf returns the right-hand endpoints linked to l, ascending.
func (ix Index[L, R]) RightOf(l L) []R {
	rs := ix.forward[l]
	out := make([]R, 0, len(rs))
	for r := range rs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// LeftOf returns the left-hand endpoints linked to r, ascending.
func (ix Index[L, R]) LeftOf(r R) []L {
	ls := ix.reverse[r]
	out := make([]L, 0, len(ls))
	for l := range ls {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// ReplaceRight resynchronises l's edges to exactly the given right-hand set.
func (ix Index[L, R]) ReplaceRight(l L, rights []R) {
	for _, r := range ix.RightOf(l) {
		ix.Unlink(l, r)
	}
	for _, r := range rights {
		ix.Link(l, r)
	}
}

// Lefts returns every left-hand endpoint with at least one edge, ascending.
func (ix Index[L, R]) Lefts() []L {
	out := make([]L, 0, len(ix.forward))
	for l := range ix.forward {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Edges returns the forward mapping as sorted slices, for serialization.
func (ix Index[L, R]) Edges() map[L][]R {
	out := make(map[L][]R, len(ix.forward))
	for _, l := range ix.Lefts() {
		out[l] = ix.RightOf(l)
	}
	return out
}
