package planner

import (
	"context"
	"log"
	"sync"
	"time"
)

type ManagerConfig struct {
	SubmitTimeout time.Duration
	// PollInterval is how often live planners reload catalog and
	// registrations. Zero disables polling.
	PollInterval time.Duration
	// IdleTTL evicts planners untouched for longer that hold no pending
	// sections. Zero disables eviction.
	IdleTTL time.Duration
}

// Manager holds one Planner per student.
type Manager struct {
	mu       sync.Mutex
	planners map[string]*Planner

	source Source
	cfg    ManagerConfig
}

// NewManager starts the polling and eviction loops; they stop when ctx is
// done.
func NewManager(ctx context.Context, src Source, cfg ManagerConfig) *Manager {
	m := &Manager{
		planners: make(map[string]*Planner),
		source:   src,
		cfg:      cfg,
	}

	if cfg.IdleTTL > 0 {
		go m.cleanupLoop(ctx)
	}
	if cfg.PollInterval > 0 {
		go m.refreshLoop(ctx)
	}

	return m
}

func (m *Manager) cleanupLoop(ctx context.Context) {
	interval := m.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupIdle(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) cleanupIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.cfg.IdleTTL)

	for id, p := range m.planners {
		if !p.evictable(cutoff) {
			continue
		}
		delete(m.planners, id)
		log.Printf("evicted idle planner for student %s", id)
	}
}

func (m *Manager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refreshAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) refreshAll(ctx context.Context) {
	m.mu.Lock()
	planners := make([]*Planner, 0, len(m.planners))
	for _, p := range m.planners {
		planners = append(planners, p)
	}
	m.mu.Unlock()

	for _, p := range planners {
		if err := p.Refresh(ctx); err != nil {
			log.Printf("refresh planner for student %s: %v", p.StudentID(), err)
		}
	}
}

// Open returns the student's planner, creating and loading it on first use.
func (m *Manager) Open(ctx context.Context, studentID string) (*Planner, error) {
	m.mu.Lock()
	p, ok := m.planners[studentID]
	m.mu.Unlock()

	if ok {
		p.Touch()
		return p, nil
	}

	p = NewPlanner(studentID, m.source, m.cfg.SubmitTimeout)
	if err := p.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have opened it while this one was loading.
	if existing, ok := m.planners[studentID]; ok {
		existing.Touch()
		return existing, nil
	}
	m.planners[studentID] = p

	return p, nil
}

func (m *Manager) Get(studentID string) (*Planner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.planners[studentID]
	return p, ok
}

func (m *Manager) Close(studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.planners[studentID]; !ok {
		return ErrPlannerNotFound
	}
	delete(m.planners, studentID)
	return nil
}
