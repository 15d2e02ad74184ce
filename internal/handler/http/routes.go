package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(withLogging)

	// sync state machine
	router.Group(func(r chi.Router) {
		r.Get("/api/status", h.getStatus)
		r.Get("/api/history", h.getHistory)
		r.Post("/api/sync", h.forceSync)
		r.Post("/api/conflict", h.resolveConflict)
	})

	// local records
	router.Group(func(r chi.Router) {
		r.Get("/api/records", h.listRecords)
		r.Get("/api/records/{entityType}/{syncID}", h.getRecord)
		r.Put("/api/records/{entityType}/{syncID}", h.putRecord)
		r.Delete("/api/records/{entityType}/{syncID}", h.deleteRecord)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
