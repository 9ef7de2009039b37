package planner

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyPlaced       = errors.New("section already placed")
	ErrDuplicateSubject    = errors.New("subject already scheduled")
	ErrTimeConflict        = errors.New("time conflict")
	ErrCannotRemoveLocked  = errors.New("registered section cannot be removed")
	ErrNotPending          = errors.New("section is not pending")
	ErrUnknownSection      = errors.New("section not found")
	ErrSubmissionInFlight  = errors.New("submission in flight")
	ErrNothingToSubmit     = errors.New("nothing to submit")
	ErrSubmissionTransport = errors.New("registration request failed")
	ErrPlannerNotFound     = errors.New("planner not found")
)

type Reason string

const (
	ReasonAlreadyPlaced      Reason = "already_placed"
	ReasonDuplicateSubject   Reason = "duplicate_subject"
	ReasonTimeConflict       Reason = "time_conflict"
	ReasonCannotRemoveLocked Reason = "cannot_remove_locked"
	ReasonNotPending         Reason = "not_pending"
	ReasonUnknownSection     Reason = "unknown_section"
	ReasonSubmissionInFlight Reason = "submission_in_flight"
	ReasonNothingToSubmit    Reason = "nothing_to_submit"
)

var reasonErrors = map[Reason]error{
	ReasonAlreadyPlaced:      ErrAlreadyPlaced,
	ReasonDuplicateSubject:   ErrDuplicateSubject,
	ReasonTimeConflict:       ErrTimeConflict,
	ReasonCannotRemoveLocked: ErrCannotRemoveLocked,
	ReasonNotPending:         ErrNotPending,
	ReasonUnknownSection:     ErrUnknownSection,
	ReasonSubmissionInFlight: ErrSubmissionInFlight,
	ReasonNothingToSubmit:    ErrNothingToSubmit,
}

// RejectError is a locally rejected intent. State is never changed when one
// is returned.
type RejectError struct {
	Reason    Reason
	SectionID string

	// Set for ReasonDuplicateSubject.
	ExistingSectionNumber string
	// Set for ReasonTimeConflict.
	ConflictingSubjectCode string
}

func reject(reason Reason, sectionID string) *RejectError {
	return &RejectError{Reason: reason, SectionID: sectionID}
}

func (e *RejectError) Error() string {
	base := reasonErrors[e.Reason]
	switch e.Reason {
	case ReasonDuplicateSubject:
		return fmt.Sprintf("%v: section %s already holds this subject", base, e.ExistingSectionNumber)
	case ReasonTimeConflict:
		return fmt.Sprintf("%v with %s", base, e.ConflictingSubjectCode)
	}
	if e.SectionID == "" {
		return base.Error()
	}
	return fmt.Sprintf("%v: %s", base, e.SectionID)
}

func (e *RejectError) Unwrap() error {
	return reasonErrors[e.Reason]
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
