package storage

import (
	"encoding/json"

	"github.com/hperssn/timetable/internal/domain"
)

// SectionRecord is a sections row. Sessions are stored as a JSON array.
type SectionRecord struct {
	ID            string
	SubjectID     string
	SubjectCode   string
	SubjectName   string
	SectionNumber string
	Capacity      int
	EnrolledCount int
	SessionsJSON  []byte
}

// FromDomainSection converts a domain.Section to a SectionRecord
func FromDomainSection(s domain.Section) (*SectionRecord, error) {
	sessions, err := json.Marshal(s.Sessions)
	if err != nil {
		return nil, err
	}

	return &SectionRecord{
		ID:            s.ID,
		SubjectID:     s.SubjectID,
		SubjectCode:   s.SubjectCode,
		SubjectName:   s.SubjectName,
		SectionNumber: s.SectionNumber,
		Capacity:      s.Capacity,
		EnrolledCount: s.EnrolledCount,
		SessionsJSON:  sessions,
	}, nil
}

func (r *SectionRecord) ToDomain() (domain.Section, error) {
	s := domain.Section{
		ID:            r.ID,
		SubjectID:     r.SubjectID,
		SubjectCode:   r.SubjectCode,
		SubjectName:   r.SubjectName,
		SectionNumber: r.SectionNumber,
		Capacity:      r.Capacity,
		EnrolledCount: r.EnrolledCount,
	}
	if err := json.Unmarshal(r.SessionsJSON, &s.Sessions); err != nil {
		return domain.Section{}, err
	}
	if err := domain.ValidateSection(s); err != nil {
		return domain.Section{}, err
	}
	return s, nil
}
