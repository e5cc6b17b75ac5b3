package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/wirelessmesh-core/internal/auth"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/locations", func(r chi.Router) {
				r.With(s.require(auth.PermLocationsRead)).Get("/", s.handleListLocations)
				r.With(s.require(auth.PermLocationsWrite)).Post("/", s.handleAddLocation)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.require(auth.PermLocationsRead)).Get("/", s.handleGetLocation)
					r.With(s.require(auth.PermLocationsRead)).Get("/events", s.handleLocationEvents)
					r.With(s.require(auth.PermLocationsWrite)).Delete("/", s.handleRemoveLocation)

					r.Route("/devices", func(r chi.Router) {
						r.Use(s.require(auth.PermLocationsWrite))
						r.Post("/", s.handleActivateDevice)
						r.Delete("/{deviceID}", s.handleRemoveDevice)
						r.Put("/{deviceID}/room", s.handleAssignRoom)
						r.Post("/{deviceID}/nightlight/toggle", s.handleToggleNightlight)
					})
				})
			})

			r.With(s.require(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

			r.With(s.require(auth.PermLocationsRead)).Get("/ws", s.handleWebSocket)
		})
	})

	// Browsers cannot set headers on the WebSocket handshake, so /ws also
	// accepts ?token=.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.require(auth.PermLocationsRead)).Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports liveness and the state of each dependency.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))

	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.health[name](r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{
		"status":     "ok",
		"version":    s.version,
		"ws_clients": s.hub.ClientCount(),
		"checks":     checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}
