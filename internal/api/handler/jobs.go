package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// JobService defines the job lifecycle operations the handlers depend on.
type JobService interface {
	Create(ctx context.Context, name string, items []picklist.ItemInput) (models.Job, error)
	List(ctx context.Context) []models.Job
	Get(ctx context.Context, ref string) (models.Job, error)
	Delete(ctx context.Context, ref string) error
	EditItemQty(ctx context.Context, ref, itemName string, qty int) (models.Job, error)
	Scans(ctx context.Context, ref string, limit int) ([]models.ScanRecord, error)
}

type jobResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	Items     []itemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type itemResponse struct {
	Name       string `json:"name"`
	TargetQty  int    `json:"target_qty"`
	CurrentQty int    `json:"current_qty"`
}

func toJobResponse(j models.Job) jobResponse {
	items := make([]itemResponse, len(j.Items))
	for i, it := range j.Items {
		items[i] = itemResponse{Name: it.Name, TargetQty: it.TargetQty, CurrentQty: it.CurrentQty}
	}
	return jobResponse{
		ID:        j.ID.String(),
		Name:      j.Name,
		Status:    j.Status(),
		Items:     items,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Items []struct {
				Name      string `json:"name"`
				TargetQty int    `json:"target_qty"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		items := make([]picklist.ItemInput, len(req.Items))
		for i, it := range req.Items {
			items[i] = picklist.ItemInput{Name: it.Name, TargetQty: it.TargetQty}
		}

		job, err := svc.Create(r.Context(), req.Name, items)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, toJobResponse(job))
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// Pollers replace their local copy with this snapshot wholesale; the server
// is authoritative.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := svc.List(r.Context())
		out := make([]jobResponse, len(jobs))
		for i, j := range jobs {
			out[i] = toJobResponse(j)
		}
		response.JSON(w, out)
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobRef}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.Get(r.Context(), chi.URLParam(r, "jobRef"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewDeleteJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobRef}.
func NewDeleteJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "jobRef")); err != nil {
			writeDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// NewEditItemHandler returns an http.HandlerFunc for
// PUT /api/v1/jobs/{jobRef}/items/{itemName}: the manual quantity override.
func NewEditItemHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentQty *int `json:"current_qty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.CurrentQty == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "current_qty is required", nil)
			return
		}

		job, err := svc.EditItemQty(r.Context(),
			chi.URLParam(r, "jobRef"), chi.URLParam(r, "itemName"), *req.CurrentQty)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewListScansHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobRef}/scans. Newest records first.
func NewListScansHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be a positive integer", nil)
				return
			}
			limit = n
		}

		scans, err := svc.Scans(r.Context(), chi.URLParam(r, "jobRef"), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, scans)
	}
}
