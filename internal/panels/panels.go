package panels

import "sort"

// Policy selects how an accordion treats concurrently expanded panels.
type Policy string

const (
	// PolicyMultiOpen lets any number of panels stay expanded at once.
	PolicyMultiOpen Policy = "multi"
	// PolicyExclusive keeps at most one panel expanded; toggling the active
	// panel collapses it again.
	PolicyExclusive Policy = "exclusive"
)

// ParsePolicy maps a configuration string to a Policy, defaulting to multi-open.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyExclusive {
		return PolicyExclusive
	}
	return PolicyMultiOpen
}

// State tracks which panels of an accordion are expanded. Implementations are
// not safe for concurrent use; each page view owns its own State.
type State interface {
	// Toggle flips the expansion of id. Unknown ids are ignored.
	Toggle(id string)
	// IsOpen reports whether id is currently expanded.
	IsOpen(id string) bool
	// Open returns the expanded ids, sorted, for session persistence.
	Open() []string
}

// New returns an empty State for the given policy. known lists the panel ids
// the accordion actually renders; toggles outside that set are dropped.
func New(policy Policy, known []string) State {
	ks := make(map[string]struct{}, len(known))
	for _, id := range known {
		ks[id] = struct{}{}
	}
	if policy == PolicyExclusive {
		return &exclusive{known: ks}
	}
	return &multiOpen{known: ks, open: map[string]struct{}{}}
}

// Restore rebuilds a State from a previously persisted Open() snapshot.
func Restore(policy Policy, known, open []string) State {
	s := New(policy, known)
	for _, id := range open {
		if !s.IsOpen(id) {
			s.Toggle(id)
		}
	}
	return s
}

type multiOpen struct {
	known map[string]struct{}
	open  map[string]struct{}
}

func (m *multiOpen) Toggle(id string) {
	if _, ok := m.known[id]; !ok {
		return
	}
	if _, ok := m.open[id]; ok {
		delete(m.open, id)
		return
	}
	m.open[id] = struct{}{}
}

func (m *multiOpen) IsOpen(id string) bool {
	_, ok := m.open[id]
	return ok
}

func (m *multiOpen) Open() []string {
	out := make([]string, 0, len(m.open))
	for id := range m.open {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type exclusive struct {
	known  map[string]struct{}
	active string
}

func (e *exclusive) Toggle(id string) {
	if _, ok := e.known[id]; !ok {
		return
	}
	if e.active == id {
		e.active = ""
		return
	}
	e.active = id
}

func (e *exclusive) IsOpen(id string) bool {
	return e.active != "" && e.active == id
}

func (e *exclusive) Open() []string {
	if e.active == "" {
		return nil
	}
	return []string{e.active}
}
