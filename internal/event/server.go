package event

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskgantt/internal/eventbus"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

// DefaultKeepAlive is how often an idle stream receives a comment line.
const DefaultKeepAlive = 30 * time.Second

// Server streams events as server-sent events.
type Server struct {
	source    Source
	keepAlive time.Duration
}

func NewServer(source Source) *Server {
	return &Server{source: source, keepAlive: DefaultKeepAlive}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/events", s.SubscribeEvents)
}

// SubscribeEvents streams events until the client goes away. The optional
// types query parameter is a comma separated list of event types to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unimplemented, "streaming unsupported", nil)
		return
	}

	typeFilter := make(map[eventbus.EventType]struct{})
	if q := r.URL.Query().Get("types"); q != "" {
		for _, t := range strings.Split(q, ",") {
			typeFilter[eventbus.EventType(strings.TrimSpace(t))] = struct{}{}
		}
	}

	subID, ch := s.source.Subscribe(64)
	defer s.source.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			if len(typeFilter) > 0 {
				if _, match := typeFilter[event.Type]; !match {
					continue
				}
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
