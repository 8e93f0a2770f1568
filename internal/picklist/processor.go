package picklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// ScanOutcome reports the result of a processed scan event.
type ScanOutcome struct {
	JobID     uuid.UUID
	JobName   string
	ItemName  string
	NewQty    int
	JobStatus string
}

// Processor orchestrates the scan path: resolve the job, match the item,
// decrement under the job lock, append a scan record.
type Processor struct {
	repo Repository
}

func NewProcessor(repo Repository) *Processor {
	return &Processor{repo: repo}
}

// Process handles one scan event. A scan always represents exactly one
// physical unit, so the matched item's quantity drops by 1 with a floor of
// zero: rescanning a depleted item is an idempotent success that still
// appends a record, never an error. The whole read-decrement-append sequence
// runs inside a single Mutate call, so two racing scans for the same item
// can never both observe the pre-decrement quantity.
func (p *Processor) Process(ctx context.Context, jobRef, rawScanText, location string) (ScanOutcome, error) {
	if rawScanText == "" {
		return ScanOutcome{}, fmt.Errorf("%w: scanned text is empty", ErrValidation)
	}

	job, err := p.repo.Resolve(ctx, jobRef)
	if err != nil {
		return ScanOutcome{}, err
	}

	var outcome ScanOutcome
	updated, err := p.repo.Mutate(ctx, job.ID, func(j *models.Job) ([]models.ScanRecord, error) {
		// Re-match against the locked state; the pre-lock snapshot may be
		// stale by the time the lock is acquired.
		itemName, err := Match(*j, rawScanText)
		switch {
		case errors.Is(err, ErrNoMatch):
			return nil, fmt.Errorf("%w: scanned text %q matches no item in job %q",
				ErrItemNotFound, rawScanText, j.Name)
		case errors.Is(err, ErrAmbiguousMatch):
			return nil, fmt.Errorf("%w: scanned text %q matches more than one item in job %q",
				ErrDataIntegrity, rawScanText, j.Name)
		case err != nil:
			return nil, err
		}

		item := j.Item(itemName)
		if item.CurrentQty > 0 {
			item.CurrentQty--
		}

		rec := models.ScanRecord{
			ID:           uuid.New(),
			JobID:        j.ID,
			ItemName:     itemName,
			ScannedText:  rawScanText,
			Location:     location,
			ResultingQty: item.CurrentQty,
			ScannedAt:    time.Now().UTC(),
		}

		outcome = ScanOutcome{
			JobID:    j.ID,
			JobName:  j.Name,
			ItemName: itemName,
			NewQty:   item.CurrentQty,
		}
		return []models.ScanRecord{rec}, nil
	})
	if err != nil {
		return ScanOutcome{}, err
	}

	outcome.JobStatus = updated.Status()
	return outcome, nil
}
