package planner

import "github.com/hperssn/timetable/internal/domain"

// BuildPayload produces one registration request per pending section.
func BuildPayload(pending []domain.Section) []domain.RegistrationRequest {
	items := make([]domain.RegistrationRequest, 0, len(pending))
	for _, sec := range pending {
		sessions := make([]domain.Session, len(sec.Sessions))
		copy(sessions, sec.Sessions)

		items = append(items, domain.RegistrationRequest{
			SectionID:     sec.ID,
			SubjectID:     sec.SubjectID,
			SubjectCode:   sec.SubjectCode,
			SubjectName:   sec.SubjectName,
			SectionNumber: sec.SectionNumber,
			Sessions:      sessions,
		})
	}
	return items
}

type FailedItem struct {
	SectionID   string `json:"sectionId"`
	SubjectCode string `json:"subjectCode"`
	Reason      string `json:"reason"`
}

// Outcome is the per-section result of one bulk submission.
type Outcome struct {
	RequestID string       `json:"requestId"`
	Succeeded []string     `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
	// Failures the backend reported for codes that were not requested.
	Unmatched []domain.ItemFailure `json:"unmatched,omitempty"`
	// TotalRegistered as reported by the backend.
	Reported int `json:"reported"`
}

// Mismatch reports whether the backend's count disagrees with the item
// list.
func (o Outcome) Mismatch() bool {
	return o.Reported != len(o.Succeeded)
}

// ApplyResult maps a bulk response back onto the requested sections.
// Failures are keyed by subject code. A schedule holds one section per
// subject, but distinct subjects may share a code; such failures are
// assigned to those requests in order, and any beyond them are unmatched.
// Every request not named as failed is treated as registered.
func ApplyResult(requested []domain.RegistrationRequest, res domain.BulkResult) Outcome {
	byCode := make(map[string][]int, len(requested))
	for i, item := range requested {
		byCode[item.SubjectCode] = append(byCode[item.SubjectCode], i)
	}

	out := Outcome{
		Succeeded: []string{},
		Failed:    []FailedItem{},
		Reported:  res.TotalRegistered,
	}

	failed := make(map[int]bool, len(res.Failed))
	for _, f := range res.Failed {
		queue := byCode[f.Code]
		if len(queue) == 0 {
			out.Unmatched = append(out.Unmatched, f)
			continue
		}
		i := queue[0]
		byCode[f.Code] = queue[1:]

		failed[i] = true
		out.Failed = append(out.Failed, FailedItem{
			SectionID:   requested[i].SectionID,
			SubjectCode: f.Code,
			Reason:      f.Reason,
		})
	}

	for i, item := range requested {
		if !failed[i] {
			out.Succeeded = append(out.Succeeded, item.SectionID)
		}
	}
	return out
}

// TransportFailure marks every requested section as failed with the same
// reason. The backend's partial progress is unknown in this case.
func TransportFailure(requested []domain.RegistrationRequest, err error) Outcome {
	out := Outcome{
		Succeeded: []string{},
		Failed:    make([]FailedItem, 0, len(requested)),
	}
	for _, item := range requested {
		out.Failed = append(out.Failed, FailedItem{
			SectionID:   item.SectionID,
			SubjectCode: item.SubjectCode,
			Reason:      err.Error(),
		})
	}
	return out
}
