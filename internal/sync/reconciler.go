// Package sync merges the external inventory system's view of quantities
// into local job state without regressing progress already recorded by
// scans.
package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// Reconciler applies externally reported quantities to a job through the
// same per-job lock used by the scan path, so a sync and a scan can never
// interleave unsafely.
type Reconciler struct {
	repo picklist.Repository
}

func NewReconciler(repo picklist.Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile merges an external quantity report into the job. The merged
// quantity for each item present in both the job and the report is
// min(local, external): an external figure can legitimately pull a quantity
// further down (stock moved outside the app), but a stale higher figure
// must never resurrect units already picked locally. Items absent from the
// report are left untouched. Keys are matched under the same normalization
// as the scan matcher.
//
// External quantities are fetched by the caller before this runs, so the
// job lock is never held across external I/O.
func (r *Reconciler) Reconcile(ctx context.Context, jobID uuid.UUID, external map[string]int) (models.Job, error) {
	if len(external) == 0 {
		return r.repo.Get(ctx, jobID)
	}

	normalized := make(map[string]int, len(external))
	for name, qty := range external {
		normalized[picklist.Normalize(name)] = qty
	}

	return r.repo.Mutate(ctx, jobID, func(j *models.Job) ([]models.ScanRecord, error) {
		for i := range j.Items {
			ext, ok := normalized[picklist.Normalize(j.Items[i].Name)]
			if !ok {
				continue
			}
			if ext < 0 {
				ext = 0
			}
			if ext < j.Items[i].CurrentQty {
				j.Items[i].CurrentQty = ext
			}
		}
		return nil, nil
	})
}

// MovementResult reports what a webhook-driven stock movement changed.
type MovementResult struct {
	Applied  bool
	JobName  string
	ItemName string
	NewQty   int
}

// ApplyMovement handles a stock movement reported by the external system:
// qty units of the named item left the warehouse outside the scan flow. The
// deduction targets the most recently created job whose pick list matches
// the item exactly (no fuzzy matching) and floors the quantity at zero. A
// movement that matches no job is reported as not applied, not as an error.
func (r *Reconciler) ApplyMovement(ctx context.Context, itemName string, qty int) (MovementResult, error) {
	if qty < 1 {
		qty = 1
	}

	jobs := r.repo.List(ctx)
	for i := len(jobs) - 1; i >= 0; i-- {
		if _, err := picklist.Match(jobs[i], itemName); err != nil {
			continue
		}

		var result MovementResult
		_, err := r.repo.Mutate(ctx, jobs[i].ID, func(j *models.Job) ([]models.ScanRecord, error) {
			name, err := picklist.Match(*j, itemName)
			if err != nil {
				return nil, err
			}
			item := j.Item(name)
			item.CurrentQty -= qty
			if item.CurrentQty < 0 {
				item.CurrentQty = 0
			}
			result = MovementResult{
				Applied:  true,
				JobName:  j.Name,
				ItemName: name,
				NewQty:   item.CurrentQty,
			}
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, picklist.ErrNoMatch) || errors.Is(err, picklist.ErrJobNotFound) {
				continue // job changed or vanished between List and Mutate
			}
			return MovementResult{}, err
		}
		return result, nil
	}

	return MovementResult{}, nil
}
