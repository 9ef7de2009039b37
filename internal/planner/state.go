package planner

import (
	"sort"

	"github.com/hperssn/timetable/internal/domain"
)

// State is the personal schedule: sections already registered (locked) and
// sections placed but not yet submitted (pending). It is a value; every
// transition returns a new State and leaves the receiver untouched.
type State struct {
	locked  map[string]domain.Section
	pending map[string]domain.Section
}

func NewState(locked []domain.Section) State {
	s := State{
		locked:  make(map[string]domain.Section, len(locked)),
		pending: make(map[string]domain.Section),
	}
	for _, sec := range locked {
		s.locked[sec.ID] = sec
	}
	return s
}

func (s State) clone() State {
	next := State{
		locked:  make(map[string]domain.Section, len(s.locked)),
		pending: make(map[string]domain.Section, len(s.pending)),
	}
	for id, sec := range s.locked {
		next.locked[id] = sec
	}
	for id, sec := range s.pending {
		next.pending[id] = sec
	}
	return next
}

func (s State) IsLocked(id string) bool {
	_, ok := s.locked[id]
	return ok
}

func (s State) IsPending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

func (s State) Section(id string) (domain.Section, bool) {
	if sec, ok := s.locked[id]; ok {
		return sec, true
	}
	sec, ok := s.pending[id]
	return sec, ok
}

func sortedSections(m map[string]domain.Section) []domain.Section {
	out := make([]domain.Section, 0, len(m))
	for _, sec := range m {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s State) Locked() []domain.Section {
	return sortedSections(s.locked)
}

func (s State) Pending() []domain.Section {
	return sortedSections(s.pending)
}

// Merged returns locked sections followed by pending ones, each group
// ordered by id.
func (s State) Merged() []domain.Section {
	return append(s.Locked(), s.Pending()...)
}

func (s State) SectionForSubject(subjectID string) (domain.Section, bool) {
	for _, sec := range s.Merged() {
		if sec.SubjectID == subjectID {
			return sec, true
		}
	}
	return domain.Section{}, false
}

func (s State) ClearPending() State {
	next := s.clone()
	next.pending = make(map[string]domain.Section)
	return next
}

// withLocked returns a copy that also treats extra as registered. It is
// used for checks only and never becomes the planner's state.
func (s State) withLocked(extra map[string]domain.Section) State {
	next := s.clone()
	for id, sec := range extra {
		if !next.IsPending(id) {
			next.locked[id] = sec
		}
	}
	return next
}

// ReplaceLocked swaps in a fresh set of registered sections. Pending
// sections that are now registered are dropped and their ids returned;
// every other pending section is kept as is.
func (s State) ReplaceLocked(locked []domain.Section) (State, []string) {
	next := NewState(locked)

	var dropped []string
	for _, sec := range s.Pending() {
		if next.IsLocked(sec.ID) {
			dropped = append(dropped, sec.ID)
			continue
		}
		next.pending[sec.ID] = sec
	}
	return next, dropped
}

// Complete removes submitted sections from pending. They are expected to
// come back as locked on the next registrations reload.
func (s State) Complete(succeeded []string) State {
	next := s.clone()
	for _, id := range succeeded {
		delete(next.pending, id)
	}
	return next
}
