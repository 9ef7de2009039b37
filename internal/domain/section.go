package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Section struct {
	ID            string    `json:"id" validate:"required"`
	SubjectID     string    `json:"subjectId" validate:"required"`
	SubjectCode   string    `json:"subjectCode" validate:"required"`
	SubjectName   string    `json:"subjectName"`
	SectionNumber string    `json:"sectionNumber"`
	Capacity      int       `json:"capacity" validate:"gte=0"`
	EnrolledCount int       `json:"enrolledCount" validate:"gte=0"`
	Sessions      []Session `json:"sessions" validate:"min=1,dive"`
}

// Full reports whether the section has no seats left. It is informational:
// the registration backend is what enforces capacity.
func (s Section) Full() bool {
	return s.EnrolledCount >= s.Capacity
}

func (s Section) SeatsLeft() int {
	if s.Full() {
		return 0
	}
	return s.Capacity - s.EnrolledCount
}

var validate = validator.New()

func ValidateSection(s Section) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("section %q: %w", s.ID, err)
	}
	return nil
}
