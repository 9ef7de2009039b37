package planner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hperssn/timetable/internal/domain"
)

// Source is the registration backend: the section catalog, a student's
// registered sections, and bulk registration.
type Source interface {
	LoadCatalog(ctx context.Context) ([]domain.Section, error)
	LoadRegistrations(ctx context.Context, studentID string) ([]domain.Section, error)
	SubmitBulk(ctx context.Context, studentID string, items []domain.RegistrationRequest) (domain.BulkResult, error)
}

type PendingItem struct {
	Section     domain.Section `json:"section"`
	LastFailure string         `json:"lastFailure,omitempty"`
}

type Snapshot struct {
	StudentID string           `json:"studentId"`
	Locked    []domain.Section `json:"locked"`
	Pending   []PendingItem    `json:"pending"`
	InFlight  bool             `json:"inFlight"`
}

// Planner is one student's schedule builder. Intents are applied against
// State under a single lock; the bulk submission call is made without it.
type Planner struct {
	mu sync.Mutex

	studentID     string
	source        Source
	submitTimeout time.Duration

	catalog    map[string]domain.Section
	state      State
	failures   map[string]string
	inFlight   bool
	lastActive time.Time

	// Sections the backend accepted that no reload has shown as locked yet.
	awaiting map[string]domain.Section

	// Reload generations: started, last applied, and the last one started
	// before a successful submission. Results at or below either of the
	// latter two are stale.
	refreshSeq     uint64
	appliedRefresh uint64
	submitBarrier  uint64

	events chan Event
}

func NewPlanner(studentID string, src Source, submitTimeout time.Duration) *Planner {
	return &Planner{
		studentID:     studentID,
		source:        src,
		submitTimeout: submitTimeout,
		catalog:       make(map[string]domain.Section),
		state:         NewState(nil),
		failures:      make(map[string]string),
		awaiting:      make(map[string]domain.Section),
		lastActive:    time.Now(),
		events:        make(chan Event, 64),
	}
}

func (p *Planner) StudentID() string {
	return p.studentID
}

func (p *Planner) Events() <-chan Event {
	return p.events
}

func (p *Planner) emit(kind EventKind, sectionID, reason string) {
	select {
	case p.events <- Event{Kind: kind, SectionID: sectionID, Reason: reason, At: time.Now()}:
	default:
	}
}

func (p *Planner) touch() {
	p.lastActive = time.Now()
}

// Touch marks the planner as in use by a reader.
func (p *Planner) Touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()
}

func (p *Planner) LastActive() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive
}

// evictable reports whether the planner holds nothing that would be lost:
// no pending sections, no submission running, and no use since cutoff.
func (p *Planner) evictable(cutoff time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inFlight && len(p.state.pending) == 0 && p.lastActive.Before(cutoff)
}

// Load fetches the catalog and the student's registrations. It is the same
// operation as Refresh and exists for readability at creation time.
func (p *Planner) Load(ctx context.Context) error {
	return p.Refresh(ctx)
}

// Refresh replaces the catalog and the locked sections. Pending sections
// survive, except those that are now registered. A result that loses the
// race to a newer reload, or that was read before a successful submission
// completed, is discarded.
func (p *Planner) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.refreshSeq++
	gen := p.refreshSeq
	p.mu.Unlock()

	var catalog, locked []domain.Section

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = p.source.LoadCatalog(gctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		locked, err = p.source.LoadRegistrations(gctx, p.studentID)
		if err != nil {
			return fmt.Errorf("load registrations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen < p.appliedRefresh || gen <= p.submitBarrier {
		log.Printf("student %s: discarding stale reload %d", p.studentID, gen)
		return nil
	}
	p.appliedRefresh = gen

	p.catalog = make(map[string]domain.Section, len(catalog))
	for _, sec := range catalog {
		p.catalog[sec.ID] = sec
	}

	next, dropped := p.state.ReplaceLocked(locked)
	p.state = next
	for _, id := range dropped {
		delete(p.failures, id)
		log.Printf("student %s: pending section %s is now registered", p.studentID, id)
	}
	for id := range p.awaiting {
		if p.state.IsLocked(id) {
			delete(p.awaiting, id)
		}
	}

	p.emit(EventRefreshed, "", "")
	return nil
}

func (p *Planner) lookup(sectionID string) (domain.Section, bool) {
	if sec, ok := p.state.Section(sectionID); ok {
		return sec, true
	}
	sec, ok := p.catalog[sectionID]
	return sec, ok
}

func (p *Planner) rejected(err error) error {
	if re, ok := err.(*RejectError); ok {
		p.emit(EventRejected, re.SectionID, string(re.Reason))
	}
	return err
}

func (p *Planner) RequestAdd(sectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	if p.inFlight {
		return p.rejected(reject(ReasonSubmissionInFlight, sectionID))
	}

	sec, ok := p.lookup(sectionID)
	if !ok {
		return p.rejected(reject(ReasonUnknownSection, sectionID))
	}

	// Accepted sections count as held until a reload confirms them.
	if len(p.awaiting) > 0 {
		if _, err := Add(p.state.withLocked(p.awaiting), sec); err != nil {
			return p.rejected(err)
		}
	}

	next, err := Add(p.state, sec)
	if err != nil {
		return p.rejected(err)
	}

	p.state = next
	p.emit(EventAdded, sectionID, "")
	return nil
}

func (p *Planner) RequestRemove(sectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	if p.inFlight {
		return p.rejected(reject(ReasonSubmissionInFlight, sectionID))
	}

	next, err := Remove(p.state, sectionID)
	if err != nil {
		return p.rejected(err)
	}

	p.state = next
	delete(p.failures, sectionID)
	p.emit(EventRemoved, sectionID, "")
	return nil
}

func (p *Planner) ClearPending() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	if p.inFlight {
		return p.rejected(reject(ReasonSubmissionInFlight, ""))
	}

	p.state = p.state.ClearPending()
	p.failures = make(map[string]string)
	p.emit(EventCleared, "", "")
	return nil
}

// Submit sends every pending section in one bulk call. Sections the backend
// accepted leave pending; rejected ones stay, tagged with the reason. A
// transport error fails every requested section and leaves pending as it
// was. After any success the registrations are reloaded.
func (p *Planner) Submit(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	p.touch()
	if p.inFlight {
		p.mu.Unlock()
		return Outcome{}, p.rejected(reject(ReasonSubmissionInFlight, ""))
	}
	pending := p.state.Pending()
	if len(pending) == 0 {
		p.mu.Unlock()
		return Outcome{}, p.rejected(reject(ReasonNothingToSubmit, ""))
	}
	p.inFlight = true
	p.mu.Unlock()

	requestID := uuid.NewString()
	payload := BuildPayload(pending)
	log.Printf("student %s: submitting %d sections (request %s)", p.studentID, len(payload), requestID)

	callCtx := ctx
	if p.submitTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.submitTimeout)
		defer cancel()
	}
	res, err := p.source.SubmitBulk(callCtx, p.studentID, payload)

	p.mu.Lock()
	p.inFlight = false
	p.touch()

	if err != nil {
		out := TransportFailure(payload, err)
		out.RequestID = requestID
		for _, f := range out.Failed {
			p.failures[f.SectionID] = f.Reason
		}
		p.emit(EventSubmitFailed, "", err.Error())
		p.mu.Unlock()

		log.Printf("student %s: request %s failed: %v", p.studentID, requestID, err)
		return out, fmt.Errorf("%w: %w", ErrSubmissionTransport, err)
	}

	out := ApplyResult(payload, res)
	out.RequestID = requestID

	if len(out.Succeeded) > 0 {
		p.submitBarrier = p.refreshSeq
	}
	bySection := make(map[string]domain.Section, len(pending))
	for _, sec := range pending {
		bySection[sec.ID] = sec
	}
	p.state = p.state.Complete(out.Succeeded)
	for _, id := range out.Succeeded {
		p.awaiting[id] = bySection[id]
		delete(p.failures, id)
		p.emit(EventSubmitted, id, "")
	}
	for _, f := range out.Failed {
		p.failures[f.SectionID] = f.Reason
		p.emit(EventItemFailed, f.SectionID, f.Reason)
	}
	p.mu.Unlock()

	for _, f := range out.Unmatched {
		log.Printf("student %s: request %s: unmatched failure for %s: %s", p.studentID, requestID, f.Code, f.Reason)
	}
	if out.Mismatch() {
		log.Printf("student %s: request %s: backend reported %d registered, items say %d",
			p.studentID, requestID, out.Reported, len(out.Succeeded))
	}
	log.Printf("student %s: request %s: %d registered, %d failed",
		p.studentID, requestID, len(out.Succeeded), len(out.Failed))

	if len(out.Succeeded) > 0 {
		if err := p.Refresh(ctx); err != nil {
			log.Printf("student %s: reload after submit: %v", p.studentID, err)
		}
	}

	return out, nil
}

func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.state.Pending()
	items := make([]PendingItem, 0, len(pending))
	for _, sec := range pending {
		items = append(items, PendingItem{Section: sec, LastFailure: p.failures[sec.ID]})
	}

	return Snapshot{
		StudentID: p.studentID,
		Locked:    p.state.Locked(),
		Pending:   items,
		InFlight:  p.inFlight,
	}
}

func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Catalog returns the catalog ordered by subject code, then section number.
func (p *Planner) Catalog() []domain.Section {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Section, 0, len(p.catalog))
	for _, sec := range p.catalog {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectCode != out[j].SubjectCode {
			return out[i].SubjectCode < out[j].SubjectCode
		}
		if out[i].SectionNumber != out[j].SectionNumber {
			return out[i].SectionNumber < out[j].SectionNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (p *Planner) Render() domain.Week {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Render(p.state)
}
