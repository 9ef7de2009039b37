package domain

// RegistrationRequest is one item of a bulk registration call. It carries
// the subject and session data so the backend can register without another
// lookup round trip.
type RegistrationRequest struct {
	SectionID     string    `json:"sectionId"`
	SubjectID     string    `json:"subjectId"`
	SubjectCode   string    `json:"subjectCode"`
	SubjectName   string    `json:"subjectName"`
	SectionNumber string    `json:"sectionNumber"`
	Sessions      []Session `json:"sessions"`
}

type BulkResult struct {
	TotalRegistered int           `json:"totalRegistered"`
	Failed          []ItemFailure `json:"failed"`
}

// ItemFailure names a rejected item by subject code.
type ItemFailure struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
