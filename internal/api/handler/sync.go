package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/cache"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sortly"
	syncpkg "github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sync"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// SyncService defines the external-sync operations the handlers depend on.
type SyncService interface {
	TriggerJob(ctx context.Context, jobRef string) (models.Job, error)
	Status(ctx context.Context) (cache.SyncStatus, bool, error)
	ApplyMovement(ctx context.Context, itemName string, qty int) (syncpkg.MovementResult, error)
}

// NewTriggerSyncHandler returns an http.HandlerFunc for
// POST /api/v1/sortly/sync/{jobRef}. Sync unavailability is non-fatal:
// scanning carries on while the operator gets a 502.
func NewTriggerSyncHandler(svc SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.TriggerJob(r.Context(), chi.URLParam(r, "jobRef"))
		if err != nil {
			if errors.Is(err, sortly.ErrSortlyUnreachable) ||
				errors.Is(err, sortly.ErrSortlyAPIError) ||
				errors.Is(err, sortly.ErrSortlyTimeout) {
				slog.Warn("manual sortly sync failed", "error", err)
				response.Error(w, http.StatusBadGateway, "SYNC_UNAVAILABLE",
					"Sortly is not reachable; sync will retry on the next cycle", nil)
				return
			}
			writeDomainError(w, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewSyncStatusHandler returns an http.HandlerFunc for
// GET /api/v1/sortly/sync/status.
func NewSyncStatusHandler(svc SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, ok, err := svc.Status(r.Context())
		if err != nil {
			slog.Warn("read sync status failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if !ok {
			response.Error(w, http.StatusNotFound, "SYNC_NOT_RUN",
				"No sync cycle has completed yet", nil)
			return
		}
		response.JSON(w, status)
	}
}

// sortlyWebhookPayload mirrors Sortly's transaction.created envelope.
type sortlyWebhookPayload struct {
	Type string `json:"type"`
	Body struct {
		Verb           string  `json:"verb"`
		NodeName       string  `json:"node_name"`
		OldParentName  string  `json:"old_parent_name"`
		NodeParentName string  `json:"node_parent_name"`
		MovedQuantity  float64 `json:"moved_quantity"`
	} `json:"body"`
}

// NewSortlyWebhookHandler returns an http.HandlerFunc for
// POST /api/v1/sortly/webhook. A move out of the warehouse deducts the
// moved quantity from the matching pick-list item. The handler always
// answers 200: Sortly retries on anything else, and a malformed or
// unmatched event is not worth a retry storm.
func NewSortlyWebhookHandler(svc SyncService, warehouseLocation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sortlyWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			slog.Warn("malformed sortly webhook", "error", err)
			response.JSON(w, map[string]string{"status": "ignored", "reason": "malformed payload"})
			return
		}

		b := payload.Body
		if b.Verb != "move" || b.OldParentName != warehouseLocation || b.NodeParentName == warehouseLocation {
			response.JSON(w, map[string]string{"status": "ignored", "reason": "not a warehouse departure"})
			return
		}

		result, err := svc.ApplyMovement(r.Context(), b.NodeName, int(b.MovedQuantity))
		if err != nil {
			if errors.Is(err, picklist.ErrStorage) {
				slog.Error("webhook deduction failed", "item", b.NodeName, "error", err)
			}
			response.JSON(w, map[string]string{"status": "error", "item_name": b.NodeName})
			return
		}
		if !result.Applied {
			response.JSON(w, map[string]string{"status": "skipped", "reason": "no match", "item_name": b.NodeName})
			return
		}

		slog.Info("webhook deduction applied",
			"job", result.JobName, "item", result.ItemName, "new_qty", result.NewQty)
		response.JSON(w, map[string]any{
			"status":    "applied",
			"job_name":  result.JobName,
			"item_name": result.ItemName,
			"new_qty":   result.NewQty,
		})
	}
}
