package planner

import "github.com/hperssn/timetable/internal/domain"

// Add places candidate into pending. Checks run in order and the first
// failure wins: already placed, subject already held, time conflict.
func Add(s State, candidate domain.Section) (State, error) {
	if s.IsLocked(candidate.ID) || s.IsPending(candidate.ID) {
		return s, reject(ReasonAlreadyPlaced, candidate.ID)
	}

	if existing, ok := s.SectionForSubject(candidate.SubjectID); ok {
		err := reject(ReasonDuplicateSubject, candidate.ID)
		err.ExistingSectionNumber = existing.SectionNumber
		return s, err
	}

	for _, other := range s.Merged() {
		if other.SubjectID == candidate.SubjectID {
			continue
		}
		if _, ok := domain.Conflicts(candidate.Sessions, other.Sessions); ok {
			err := reject(ReasonTimeConflict, candidate.ID)
			err.ConflictingSubjectCode = other.SubjectCode
			return s, err
		}
	}

	next := s.clone()
	next.pending[candidate.ID] = candidate
	return next, nil
}

// Remove takes a section out of pending. Locked sections are dropped only
// through the registrar's own workflow.
func Remove(s State, sectionID string) (State, error) {
	if s.IsLocked(sectionID) {
		return s, reject(ReasonCannotRemoveLocked, sectionID)
	}
	if !s.IsPending(sectionID) {
		return s, reject(ReasonNotPending, sectionID)
	}

	next := s.clone()
	delete(next.pending, sectionID)
	return next, nil
}
