package picklist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// ItemInput is one requested pick-list line at job creation.
type ItemInput struct {
	Name      string
	TargetQty int
}

// Service implements job lifecycle operations on top of the repository:
// create, list, get, delete, manual item edits, and scan log reads.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the request and registers a new job with every item's
// current quantity set to its target. The item set is immutable after
// creation; only quantities change from here on.
func (s *Service) Create(ctx context.Context, name string, items []ItemInput) (models.Job, error) {
	if name == "" {
		return models.Job{}, fmt.Errorf("%w: job name is required", ErrValidation)
	}
	if len(items) == 0 {
		return models.Job{}, fmt.Errorf("%w: a job needs at least one item", ErrValidation)
	}

	// Item names must be unique under normalization, otherwise every scan of
	// the colliding SKU would be ambiguous.
	seen := make(map[string]string, len(items))
	jobItems := make([]models.Item, 0, len(items))
	for _, in := range items {
		if in.Name == "" {
			return models.Job{}, fmt.Errorf("%w: item name is required", ErrValidation)
		}
		if in.TargetQty < 0 {
			return models.Job{}, fmt.Errorf("%w: item %q target quantity must not be negative",
				ErrValidation, in.Name)
		}
		norm := Normalize(in.Name)
		if prev, dup := seen[norm]; dup {
			return models.Job{}, fmt.Errorf("%w: item names %q and %q collide",
				ErrValidation, prev, in.Name)
		}
		seen[norm] = in.Name
		jobItems = append(jobItems, models.Item{
			Name:       in.Name,
			TargetQty:  in.TargetQty,
			CurrentQty: in.TargetQty,
		})
	}

	now := time.Now().UTC()
	job := models.Job{
		ID:        uuid.New(),
		Name:      name,
		Items:     jobItems,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.Create(ctx, job)
}

// List returns consistent snapshots of all jobs in creation order.
func (s *Service) List(ctx context.Context) []models.Job {
	return s.repo.List(ctx)
}

// Get resolves a job by id or name.
func (s *Service) Get(ctx context.Context, ref string) (models.Job, error) {
	return s.repo.Resolve(ctx, ref)
}

// Delete removes a job and its scan log.
func (s *Service) Delete(ctx context.Context, ref string) error {
	return s.repo.Delete(ctx, ref)
}

// EditItemQty is the manual override: it sets an item's current quantity
// directly, bounded by 0..target. The item is addressed by its exact stored
// name, not through the scan matcher.
func (s *Service) EditItemQty(ctx context.Context, ref, itemName string, qty int) (models.Job, error) {
	job, err := s.repo.Resolve(ctx, ref)
	if err != nil {
		return models.Job{}, err
	}

	return s.repo.Mutate(ctx, job.ID, func(j *models.Job) ([]models.ScanRecord, error) {
		item := j.Item(itemName)
		if item == nil {
			return nil, fmt.Errorf("%w: item %q not found in job %q", ErrItemNotFound, itemName, j.Name)
		}
		if qty < 0 || qty > item.TargetQty {
			return nil, fmt.Errorf("%w: quantity %d for item %q must be between 0 and %d",
				ErrValidation, qty, itemName, item.TargetQty)
		}
		item.CurrentQty = qty
		return nil, nil
	})
}

// Scans returns the most recent scan records for a job, newest first.
func (s *Service) Scans(ctx context.Context, ref string, limit int) ([]models.ScanRecord, error) {
	job, err := s.repo.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.repo.Scans(ctx, job.ID, limit)
}
