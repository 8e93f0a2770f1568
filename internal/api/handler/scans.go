package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
)

// ScanService defines the scan operation the handler depends on.
type ScanService interface {
	Process(ctx context.Context, jobRef, rawScanText, location string) (picklist.ScanOutcome, error)
}

type scanResponse struct {
	JobID     string `json:"job_id"`
	JobName   string `json:"job_name"`
	ItemName  string `json:"item_name"`
	NewQty    int    `json:"new_qty"`
	JobStatus string `json:"job_status"`
}

// NewSubmitScanHandler returns an http.HandlerFunc for POST /api/v1/scans.
// A depleted-item rescan succeeds silently with new_qty 0; the response
// never distinguishes "already done" from "just done".
func NewSubmitScanHandler(svc ScanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Job         string `json:"job"`
			ScannedText string `json:"scanned_text"`
			Location    string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Job == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job is required", nil)
			return
		}
		if req.ScannedText == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "scanned_text is required", nil)
			return
		}

		outcome, err := svc.Process(r.Context(), req.Job, req.ScannedText, req.Location)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response.JSON(w, scanResponse{
			JobID:     outcome.JobID.String(),
			JobName:   outcome.JobName,
			ItemName:  outcome.ItemName,
			NewQty:    outcome.NewQty,
			JobStatus: outcome.JobStatus,
		})
	}
}
