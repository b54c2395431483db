package workflow

import (
	"cmp"
	"slices"
)

type EdgeKind string

const (
	// EdgeNormal comes from an "ok" transition, a decision arm, a fork path or a join successor
	EdgeNormal EdgeKind = "NORMAL"
	// EdgeError comes from an "error" transition
	EdgeError EdgeKind = "ERROR"
	// EdgeStructural is introduced by the compiler or a mapper
	EdgeStructural EdgeKind = "STRUCTURAL"
)

func (k EdgeKind) IsValid() bool {
	switch k {
	case EdgeNormal, EdgeError, EdgeStructural:
		return true
	}
	return false
}

// Relation orders two tasks: To must not start before From reached a terminal state
type Relation struct {
	From string
	To   string
	Kind EdgeKind
}

func compareRelations(a, b Relation) int {
	return cmp.Or(
		cmp.Compare(a.From, b.From),
		cmp.Compare(a.To, b.To),
		cmp.Compare(a.Kind, b.Kind),
	)
}

// Pair is an ordered task pair without edge kind, as emitted to the scheduler
type Pair struct {
	From string
	To   string
}

// RelationSet is a deduplicated set of relations
type RelationSet struct {
	items map[Relation]struct{}
}

func NewRelationSet(relations ...Relation) *RelationSet {
	s := &RelationSet{items: make(map[Relation]struct{}, len(relations))}
	for _, r := range relations {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether it was not already present
func (s *RelationSet) Add(r Relation) bool {
	if _, ok := s.items[r]; ok {
		return false
	}
	s.items[r] = struct{}{}
	return true
}

func (s *RelationSet) Remove(r Relation) {
	delete(s.items, r)
}

func (s *RelationSet) Has(r Relation) bool {
	_, ok := s.items[r]
	return ok
}

func (s *RelationSet) Len() int {
	return len(s.items)
}

// Sorted returns every relation ordered by from, to and kind
func (s *RelationSet) Sorted() []Relation {
	out := make([]Relation, 0, len(s.items))
	for r := range s.items {
		out = append(out, r)
	}
	slices.SortFunc(out, compareRelations)
	return out
}

func (s *RelationSet) Incoming(taskID string) []Relation {
	return s.filter(func(r Relation) bool { return r.To == taskID })
}

func (s *RelationSet) Outgoing(taskID string) []Relation {
	return s.filter(func(r Relation) bool { return r.From == taskID })
}

// Pairs collapses relations that share endpoints but differ in kind
func (s *RelationSet) Pairs() []Pair {
	seen := make(map[Pair]struct{}, len(s.items))
	out := make([]Pair, 0, len(s.items))
	for _, r := range s.Sorted() {
		p := Pair{From: r.From, To: r.To}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (s *RelationSet) filter(keep func(Relation) bool) []Relation {
	var out []Relation
	for r := range s.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, compareRelations)
	return out
}
