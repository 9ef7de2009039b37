package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/hperssn/timetable/internal/planner"
)

// keepAliveInterval is how often an idle stream writes a comment line and
// marks the planner as in use.
var keepAliveInterval = 30 * time.Second

// StreamPlannerEvents writes the student's planner events as server-sent
// events until the client goes away. Events are delivered to one reader;
// concurrent streams for the same student split them.
func StreamPlannerEvents(manager *planner.Manager, studentID func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		p, err := manager.Open(r.Context(), studentID(r))
		if err != nil {
			log.Printf("open planner for events: %v", err)
			http.Error(w, "schedule unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		events := p.Events()
		for {
			select {
			case <-keepAlive.C:
				p.Touch()
				w.Write([]byte(": keepalive\n\n"))
				flusher.Flush()

			case ev, ok := <-events:
				if !ok {
					return
				}

				data, err := json.Marshal(ev)
				if err != nil {
					log.Printf("encode event: %v", err)
					continue
				}
				w.Write([]byte("event: " + string(ev.Kind) + "\n"))
				w.Write([]byte("data: "))
				w.Write(data)
				w.Write([]byte("\n\n"))

				flusher.Flush()
				p.Touch()

			case <-r.Context().Done():
				return
			}
		}
	}
}
