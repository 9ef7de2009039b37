package planner

import "github.com/hperssn/timetable/internal/domain"

// Entries expands every section of s into one grid entry per session,
// locked sections first.
func Entries(s State) []domain.Entry {
	var entries []domain.Entry
	for _, sec := range s.Locked() {
		for _, sess := range sec.Sessions {
			entries = append(entries, domain.Entry{Section: sec, Session: sess, Locked: true})
		}
	}
	for _, sec := range s.Pending() {
		for _, sess := range sec.Sessions {
			entries = append(entries, domain.Entry{Section: sec, Session: sess})
		}
	}
	return entries
}

func Render(s State) domain.Week {
	return domain.LayoutWeek(Entries(s))
}
