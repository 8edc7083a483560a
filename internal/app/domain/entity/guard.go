package entity

// Edge identifies a directed relation between two entity kinds, e.g.
// project -> organization.
type Edge struct {
	From string
	To   string
}

// Guard is the set of relation edges already serialized on the current path.
// A nested entity consults it before re-serializing the relation that points
// back at its parent. Guards are copied on extension so sibling branches do
// not observe each other's edges.
type Guard map[Edge]struct{}

// Visited reports whether the from -> to edge was already walked.
func (g Guard) Visited(from, to string) bool {
	_, ok := g[Edge{From: from, To: to}]
	return ok
}

// With returns a new guard that additionally covers the from -> to edge.
func (g Guard) With(from, to string) Guard {
	next := make(Guard, len(g)+1)
	for e := range g {
		next[e] = struct{}{}
	}
	next[Edge{From: from, To: to}] = struct{}{}
	return next
}
