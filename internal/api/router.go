package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/middleware"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateJobHandler  http.HandlerFunc
	ListJobsHandler   http.HandlerFunc
	GetJobHandler     http.HandlerFunc
	DeleteJobHandler  http.HandlerFunc
	EditItemHandler   http.HandlerFunc
	ListScansHandler  http.HandlerFunc
	SubmitScanHandler http.HandlerFunc

	TriggerSyncHandler   http.HandlerFunc
	SyncStatusHandler    http.HandlerFunc
	SortlyWebhookHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Webhook is called by Sortly, not the floor clients; it bypasses the
	// client rate limit.
	r.Post("/api/v1/sortly/webhook", orNotImplemented(deps.SortlyWebhookHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/api/v1/jobs/{jobRef}", orNotImplemented(deps.GetJobHandler))
		r.Delete("/api/v1/jobs/{jobRef}", orNotImplemented(deps.DeleteJobHandler))
		r.Put("/api/v1/jobs/{jobRef}/items/{itemName}", orNotImplemented(deps.EditItemHandler))
		r.Get("/api/v1/jobs/{jobRef}/scans", orNotImplemented(deps.ListScansHandler))

		r.Post("/api/v1/scans", orNotImplemented(deps.SubmitScanHandler))

		r.Post("/api/v1/sortly/sync/{jobRef}", orNotImplemented(deps.TriggerSyncHandler))
		r.Get("/api/v1/sortly/sync/status", orNotImplemented(deps.SyncStatusHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
