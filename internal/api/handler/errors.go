package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
)

// writeDomainError maps pick-list sentinel errors to API error responses.
// User-correctable errors carry their message verbatim so the operator sees
// the offending identifier; internal failures are logged with full context
// and surfaced as a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, picklist.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, picklist.ErrJobNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, picklist.ErrItemNotFound):
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, picklist.ErrDataIntegrity):
		slog.Error("data integrity violation", "error", err)
		response.Error(w, http.StatusInternalServerError, "DATA_INTEGRITY",
			"Stored job state is inconsistent; this is a bug, not a scan problem", nil)
	case errors.Is(err, picklist.ErrStorage):
		slog.Error("storage failure", "error", err)
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"The operation could not be persisted", nil)
	default:
		slog.Error("unexpected error", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
