package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/hperssn/timetable/internal/config"
	"github.com/hperssn/timetable/internal/http"
	"github.com/hperssn/timetable/internal/planner"
	"github.com/hperssn/timetable/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	repo, err := storage.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open %s database: %v", cfg.DBDriver, err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := planner.NewManager(ctx, repo, planner.ManagerConfig{
		SubmitTimeout: cfg.SubmitTimeout,
		PollInterval:  cfg.PollInterval,
		IdleTTL:       cfg.IdleTTL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(manager),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newRouter(m *planner.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(ExtractStudentMiddleware)

		r.Get("/catalog", withPlanner(m, getCatalog))
		r.Get("/schedule", withPlanner(m, getSchedule))
		r.Get("/schedule/render", withPlanner(m, renderSchedule))
		r.Post("/schedule/pending", withPlanner(m, addPending))
		r.Delete("/schedule/pending", withPlanner(m, clearPending))
		r.Delete("/schedule/pending/{sectionID}", withPlanner(m, removePending))
		r.Post("/schedule/submit", withPlanner(m, submitSchedule))
		r.Post("/schedule/refresh", withPlanner(m, refreshSchedule))
		r.Get("/schedule/events", httpapi.StreamPlannerEvents(m, GetStudentID))
	})

	return r
}

type plannerHandler func(w http.ResponseWriter, r *http.Request, p *planner.Planner)

func withPlanner(m *planner.Manager, fn plannerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Open(r.Context(), GetStudentID(r))
		if err != nil {
			log.Printf("open planner: %v", err)
			respondError(w, "schedule unavailable", http.StatusBadGateway)
			return
		}
		fn(w, r, p)
	}
}

func getCatalog(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	respondJSON(w, p.Catalog(), http.StatusOK)
}

func getSchedule(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	respondJSON(w, p.Snapshot(), http.StatusOK)
}

func renderSchedule(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	respondJSON(w, p.Render(), http.StatusOK)
}

var validate = validator.New()

type addRequest struct {
	SectionID string `json:"sectionId" validate:"required"`
}

func addPending(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "sectionId is required", http.StatusBadRequest)
		return
	}

	if err := p.RequestAdd(req.SectionID); err != nil {
		respondReject(w, err)
		return
	}

	respondJSON(w, p.Snapshot(), http.StatusOK)
}

func removePending(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	if err := p.RequestRemove(chi.URLParam(r, "sectionID")); err != nil {
		respondReject(w, err)
		return
	}

	respondJSON(w, p.Snapshot(), http.StatusOK)
}

func clearPending(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	if err := p.ClearPending(); err != nil {
		respondReject(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func submitSchedule(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	out, err := p.Submit(r.Context())
	if errors.Is(err, planner.ErrSubmissionTransport) {
		respondJSON(w, map[string]any{"error": err.Error(), "outcome": out}, http.StatusBadGateway)
		return
	}
	if err != nil {
		respondReject(w, err)
		return
	}

	respondJSON(w, out, http.StatusOK)
}

func refreshSchedule(w http.ResponseWriter, r *http.Request, p *planner.Planner) {
	if err := p.Refresh(r.Context()); err != nil {
		log.Printf("refresh for %s: %v", p.StudentID(), err)
		respondError(w, "refresh failed", http.StatusBadGateway)
		return
	}

	respondJSON(w, p.Snapshot(), http.StatusOK)
}

func respondReject(w http.ResponseWriter, err error) {
	reason, ok := planner.ReasonOf(err)
	if !ok {
		log.Printf("unexpected planner error: %v", err)
		respondError(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusConflict
	switch reason {
	case planner.ReasonUnknownSection:
		status = http.StatusNotFound
	case planner.ReasonSubmissionInFlight:
		status = http.StatusLocked
	case planner.ReasonNothingToSubmit:
		status = http.StatusBadRequest
	}

	respondJSON(w, map[string]string{"error": err.Error(), "reason": string(reason)}, status)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
