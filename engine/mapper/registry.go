package mapper

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrMapperNil    = errors.New("mapper must not be nil")
	ErrTagEmpty     = errors.New("mapper tag must not be empty")
	ErrDuplicateTag = errors.New("mapper tag already registered")
)

// Entry binds a source tag to its mapper.
// Passthrough entries produce marker nodes that are removed from the final graph.
type Entry struct {
	Tag         string
	Mapper      Mapper
	Passthrough bool
}

// Registry is an immutable lookup table of mappers keyed by tag
type Registry struct {
	entries  map[string]Entry
	fallback Mapper
}

// NewRegistry builds a registry. Tags without an entry resolve to fallback.
func NewRegistry(fallback Mapper, entries ...Entry) (*Registry, error) {
	if fallback == nil {
		return nil, fmt.Errorf("fallback: %w", ErrMapperNil)
	}
	r := &Registry{entries: make(map[string]Entry, len(entries)), fallback: fallback}
	for _, e := range entries {
		key := normalizeTag(e.Tag)
		if key == "" {
			return nil, ErrTagEmpty
		}
		if e.Mapper == nil {
			return nil, fmt.Errorf("%s: %w", e.Tag, ErrMapperNil)
		}
		if _, exists := r.entries[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, e.Tag)
		}
		e.Tag = key
		r.entries[key] = e
	}
	return r, nil
}

// Lookup returns the entry registered for tag or the fallback entry
func (r *Registry) Lookup(tag string) Entry {
	key := normalizeTag(tag)
	if e, ok := r.entries[key]; ok {
		return e
	}
	return Entry{Tag: key, Mapper: r.fallback}
}

// Tags returns the registered tags sorted
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.entries))
	for tag := range r.entries {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// DefaultEntries returns the control and action mappers shipped with the converter
func DefaultEntries() []Entry {
	return []Entry{
		{Tag: "start", Mapper: StartMapper{}, Passthrough: true},
		{Tag: "end", Mapper: EndMapper{}},
		{Tag: "kill", Mapper: KillMapper{}},
		{Tag: "decision", Mapper: DecisionMapper{}},
		{Tag: "fork", Mapper: ForkMapper{}},
		{Tag: "join", Mapper: JoinMapper{}},
		{Tag: "shell", Mapper: Prepared(ShellMapper{})},
		{Tag: "spark", Mapper: Prepared(SparkMapper{})},
		{Tag: "distcp", Mapper: Prepared(DistCpMapper{})},
	}
}

// DefaultRegistry builds the registry used by the converter
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DummyMapper{}, DefaultEntries()...)
}
