package domain

// Overlaps reports whether two sessions share any minute on the same day.
// Touching boundaries (one ends at 10:00, the other starts at 10:00) do not
// overlap.
func Overlaps(a, b Session) bool {
	return a.Day == b.Day && a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
}

// Conflicts returns the first session in a that overlaps any session in b.
func Conflicts(a, b []Session) (Session, bool) {
	for _, sa := range a {
		for _, sb := range b {
			if Overlaps(sa, sb) {
				return sa, true
			}
		}
	}
	return Session{}, false
}
