package planner_test

import (
	"context"
	"sync"
	"time"

	"github.com/hperssn/timetable/internal/domain"
)

type fakeSource struct {
	mu         sync.Mutex
	catalog    []domain.Section
	registered map[string][]domain.Section

	submit      func(ctx context.Context, items []domain.RegistrationRequest) (domain.BulkResult, error)
	submitCalls int

	// The next registrations load reads its result, closes loadRead and
	// then waits for loadRelease before returning it.
	loadRead    chan struct{}
	loadRelease chan struct{}
	loadErr     error
}

func newFakeSource(catalog ...domain.Section) *fakeSource {
	return &fakeSource{
		catalog:    catalog,
		registered: make(map[string][]domain.Section),
	}
}

func (f *fakeSource) LoadCatalog(ctx context.Context) ([]domain.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Section(nil), f.catalog...), nil
}

func (f *fakeSource) LoadRegistrations(ctx context.Context, studentID string) ([]domain.Section, error) {
	f.mu.Lock()
	if f.loadErr != nil {
		err := f.loadErr
		f.mu.Unlock()
		return nil, err
	}
	regs := append([]domain.Section(nil), f.registered[studentID]...)
	read, release := f.loadRead, f.loadRelease
	f.loadRead, f.loadRelease = nil, nil
	f.mu.Unlock()

	if read != nil {
		close(read)
		<-release
	}
	return regs, nil
}

// holdNextLoad makes the next registrations load stall after reading.
func (f *fakeSource) holdNextLoad() (read, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadRead = make(chan struct{})
	f.loadRelease = make(chan struct{})
	return f.loadRead, f.loadRelease
}

func (f *fakeSource) failLoads(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

func (f *fakeSource) SubmitBulk(ctx context.Context, studentID string, items []domain.RegistrationRequest) (domain.BulkResult, error) {
	f.mu.Lock()
	f.submitCalls++
	submit := f.submit
	f.mu.Unlock()

	if submit != nil {
		return submit(ctx, items)
	}
	return f.registerAll(studentID, items), nil
}

func (f *fakeSource) register(studentID string, sectionIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range sectionIDs {
		for _, sec := range f.catalog {
			if sec.ID == id {
				f.registered[studentID] = append(f.registered[studentID], sec)
			}
		}
	}
}

func (f *fakeSource) registerAll(studentID string, items []domain.RegistrationRequest) domain.BulkResult {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.SectionID)
	}
	f.register(studentID, ids...)
	return domain.BulkResult{TotalRegistered: len(items)}
}

func clock(s string) int {
	m, err := domain.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return m
}

func section(id, subjectID, code, number string, sessions ...domain.Session) domain.Section {
	return domain.Section{
		ID:            id,
		SubjectID:     subjectID,
		SubjectCode:   code,
		SubjectName:   code,
		SectionNumber: number,
		Capacity:      30,
		Sessions:      sessions,
	}
}

func session(day time.Weekday, start, end string) domain.Session {
	return domain.Session{Day: day, StartMinute: clock(start), EndMinute: clock(end)}
}

var (
	secA = section("A", "SUBJ1", "CS101", "1", session(time.Monday, "09:00", "10:00"))
	secB = section("B", "SUBJ2", "CS201", "1", session(time.Monday, "09:30", "10:30"))
	secC = section("C", "SUBJ1", "CS101", "2", session(time.Tuesday, "11:00", "12:00"))
	secD = section("D", "SUBJ3", "MA101", "1", session(time.Monday, "10:00", "11:00"))
	secE = section("E", "SUBJ2", "CS201", "2",
		session(time.Wednesday, "13:00", "14:30"),
		session(time.Friday, "13:00", "14:30"),
	)
)
