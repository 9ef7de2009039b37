package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hperssn/timetable/internal/domain"
	"github.com/hperssn/timetable/internal/planner"
)

func loadedPlanner(t *testing.T, src *fakeSource) *planner.Planner {
	t.Helper()

	p := planner.NewPlanner("student-1", src, time.Second)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPlanner_RequestAdd(t *testing.T) {
	p := loadedPlanner(t, newFakeSource(secA, secB, secC, secD))

	if err := p.RequestAdd("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.RequestAdd("B"); !errors.Is(err, planner.ErrTimeConflict) {
		t.Fatalf("expected ErrTimeConflict, got %v", err)
	}
	if err := p.RequestAdd("missing"); !errors.Is(err, planner.ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}

	snap := p.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Section.ID != "A" {
		t.Fatalf("pending = %+v want [A]", snap.Pending)
	}
}

func TestPlanner_LockedFromRegistrations(t *testing.T) {
	src := newFakeSource(secA, secC, secD)
	src.register("student-1", "A")
	p := loadedPlanner(t, src)

	if err := p.RequestAdd("A"); !errors.Is(err, planner.ErrAlreadyPlaced) {
		t.Fatalf("expected ErrAlreadyPlaced, got %v", err)
	}
	if err := p.RequestAdd("C"); !errors.Is(err, planner.ErrDuplicateSubject) {
		t.Fatalf("expected ErrDuplicateSubject, got %v", err)
	}
	if err := p.RequestRemove("A"); !errors.Is(err, planner.ErrCannotRemoveLocked) {
		t.Fatalf("expected ErrCannotRemoveLocked, got %v", err)
	}
}

func TestPlanner_SubmitAll(t *testing.T) {
	src := newFakeSource(secA, secD)
	p := loadedPlanner(t, src)

	for _, id := range []string{"A", "D"} {
		if err := p.RequestAdd(id); err != nil {
			t.Fatalf("RequestAdd(%s): %v", id, err)
		}
	}

	out, err := p.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Succeeded) != 2 || out.RequestID == "" {
		t.Fatalf("outcome = %+v", out)
	}

	snap := p.Snapshot()
	if len(snap.Pending) != 0 {
		t.Fatalf("pending = %+v want empty", snap.Pending)
	}
	if len(snap.Locked) != 2 {
		t.Fatalf("locked = %d want 2 after reload", len(snap.Locked))
	}
}

func TestPlanner_SubmitPartial(t *testing.T) {
	src := newFakeSource(secA, secE)
	src.submit = func(ctx context.Context, items []domain.RegistrationRequest) (domain.BulkResult, error) {
		src.register("student-1", "A")
		return domain.BulkResult{
			TotalRegistered: 1,
			Failed:          []domain.ItemFailure{{Code: "CS201", Reason: "Section full"}},
		}, nil
	}
	p := loadedPlanner(t, src)

	_ = p.RequestAdd("A")
	_ = p.RequestAdd("E")

	out, err := p.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Succeeded) != 1 || len(out.Failed) != 1 {
		t.Fatalf("outcome = %+v", out)
	}

	snap := p.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Section.ID != "E" {
		t.Fatalf("pending = %+v want [E]", snap.Pending)
	}
	if snap.Pending[0].LastFailure != "Section full" {
		t.Fatalf("LastFailure = %q want Section full", snap.Pending[0].LastFailure)
	}

	if err := p.RequestRemove("E"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPlanner_SubmitTransportFailure(t *testing.T) {
	src := newFakeSource(secA, secD)
	src.submit = func(ctx context.Context, items []domain.RegistrationRequest) (domain.BulkResult, error) {
		<-ctx.Done()
		return domain.BulkResult{}, ctx.Err()
	}
	p := planner.NewPlanner("student-1", src, 20*time.Millisecond)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = p.RequestAdd("A")
	_ = p.RequestAdd("D")

	out, err := p.Submit(context.Background())
	if !errors.Is(err, planner.ErrSubmissionTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected transport failure wrapping deadline, got %v", err)
	}
	if len(out.Failed) != 2 {
		t.Fatalf("failed = %+v want both sections", out.Failed)
	}

	snap := p.Snapshot()
	if len(snap.Pending) != 2 {
		t.Fatalf("pending = %d want 2", len(snap.Pending))
	}
	for _, item := range snap.Pending {
		if item.LastFailure == "" {
			t.Errorf("section %s has no failure reason", item.Section.ID)
		}
	}
	if snap.InFlight {
		t.Fatalf("submission should no longer be in flight")
	}
}

func TestPlanner_InFlightBlocksMutation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	src := newFakeSource(secA, secD)
	src.submit = func(ctx context.Context, items []domain.RegistrationRequest) (domain.BulkResult, error) {
		close(started)
		<-release
		return domain.BulkResult{TotalRegistered: len(items)}, nil
	}
	p := loadedPlanner(t, src)
	_ = p.RequestAdd("A")

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background())
		done <- err
	}()
	<-started

	if err := p.RequestAdd("D"); !errors.Is(err, planner.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight on add, got %v", err)
	}
	if err := p.RequestRemove("A"); !errors.Is(err, planner.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight on remove, got %v", err)
	}
	if err := p.ClearPending(); !errors.Is(err, planner.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight on clear, got %v", err)
	}
	if _, err := p.Submit(context.Background()); !errors.Is(err, planner.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight on second submit, got %v", err)
	}
	if len(p.Catalog()) != 2 {
		t.Fatalf("catalog should stay browsable during submission")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.RequestAdd("D"); err != nil {
		t.Fatalf("unexpected error after submission: %v", err)
	}
}

func TestPlanner_SubmitNothing(t *testing.T) {
	p := loadedPlanner(t, newFakeSource(secA))
	<-p.Events() // refreshed

	if _, err := p.Submit(context.Background()); !errors.Is(err, planner.ErrNothingToSubmit) {
		t.Fatalf("expected ErrNothingToSubmit, got %v", err)
	}

	select {
	case ev := <-p.Events():
		if ev.Kind != planner.EventRejected || ev.Reason != string(planner.ReasonNothingToSubmit) {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected a rejected event")
	}
}

func TestPlanner_RefreshKeepsPending(t *testing.T) {
	src := newFakeSource(secA, secD, secE)
	p := loadedPlanner(t, src)
	_ = p.RequestAdd("A")
	_ = p.RequestAdd("E")

	src.register("student-1", "D")
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := p.Snapshot()
	if len(snap.Pending) != 2 || len(snap.Locked) != 1 {
		t.Fatalf("pending=%d locked=%d want 2 and 1", len(snap.Pending), len(snap.Locked))
	}

	src.register("student-1", "A")
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap = p.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Section.ID != "E" {
		t.Fatalf("pending = %+v want [E]", snap.Pending)
	}
}

func TestPlanner_ClearPending(t *testing.T) {
	p := loadedPlanner(t, newFakeSource(secA, secD))
	_ = p.RequestAdd("A")
	_ = p.RequestAdd("D")

	if err := p.ClearPending(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Snapshot().Pending) != 0 {
		t.Fatalf("pending not cleared")
	}
}

func TestPlanner_Render(t *testing.T) {
	src := newFakeSource(secA, secD, secE)
	src.register("student-1", "A")
	p := loadedPlanner(t, src)
	_ = p.RequestAdd("D")
	_ = p.RequestAdd("E")

	week := p.Render()
	monday := week.Days[0]
	if monday.Day != time.Monday || len(monday.Entries) != 2 || monday.NeededTracks != 1 {
		t.Fatalf("monday = %+v", monday)
	}
	if !monday.Entries[0].Locked || monday.Entries[1].Locked {
		t.Fatalf("expected A locked and D pending, got %+v", monday.Entries)
	}
	if len(week.Days[2].Entries) != 1 || len(week.Days[4].Entries) != 1 {
		t.Fatalf("E should appear on wednesday and friday")
	}
}

func TestPlanner_Events(t *testing.T) {
	p := loadedPlanner(t, newFakeSource(secA, secB))
	<-p.Events() // refreshed

	_ = p.RequestAdd("A")
	_ = p.RequestAdd("B")

	added := <-p.Events()
	if added.Kind != planner.EventAdded || added.SectionID != "A" {
		t.Fatalf("unexpected event %+v", added)
	}
	rejected := <-p.Events()
	if rejected.Kind != planner.EventRejected || rejected.Reason != string(planner.ReasonTimeConflict) {
		t.Fatalf("unexpected event %+v", rejected)
	}
}

func TestPlanner_StaleRefreshAfterSubmit(t *testing.T) {
	src := newFakeSource(secA, secC)
	p := loadedPlanner(t, src)
	if err := p.RequestAdd("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A poll reads the registrations before the submission lands and
	// stalls until after the submission's own reload has been applied.
	read, release := src.holdNextLoad()
	polled := make(chan error, 1)
	go func() { polled <- p.Refresh(context.Background()) }()
	<-read

	out, err := p.Submit(context.Background())
	if err != nil || len(out.Succeeded) != 1 {
		t.Fatalf("submit: outcome=%+v err=%v", out, err)
	}

	close(release)
	if err := <-polled; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := p.State()
	if !state.IsLocked("A") {
		t.Fatalf("A should stay locked after the stale reload finishes")
	}
	if err := p.RequestAdd("C"); !errors.Is(err, planner.ErrDuplicateSubject) {
		t.Fatalf("expected ErrDuplicateSubject for a second CS101 section, got %v", err)
	}
}

func TestPlanner_AcceptedSectionHeldUntilReload(t *testing.T) {
	src := newFakeSource(secA, secC, secD)
	src.submit = func(ctx context.Context, items []domain.RegistrationRequest) (domain.BulkResult, error) {
		src.failLoads(errors.New("registrations unavailable"))
		return domain.BulkResult{TotalRegistered: len(items)}, nil
	}
	p := loadedPlanner(t, src)
	_ = p.RequestAdd("A")

	if _, err := p.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Snapshot().Pending) != 0 {
		t.Fatalf("accepted section should leave pending")
	}

	if err := p.RequestAdd("A"); !errors.Is(err, planner.ErrAlreadyPlaced) {
		t.Fatalf("expected ErrAlreadyPlaced, got %v", err)
	}
	if err := p.RequestAdd("C"); !errors.Is(err, planner.ErrDuplicateSubject) {
		t.Fatalf("expected ErrDuplicateSubject, got %v", err)
	}
	if err := p.RequestAdd("D"); err != nil {
		t.Fatalf("unrelated section should still be accepted: %v", err)
	}
}
