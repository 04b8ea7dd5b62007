package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pageturn/bookmarket-backend/pkg/logger"
)

const cartCleanupJobName = "cart_cleanup"

type staleCartReader interface {
	StaleItemBookIDs(ctx context.Context) ([]uuid.UUID, error)
	DeleteItemsForBooks(ctx context.Context, bookIDs []uuid.UUID) (int64, error)
}

// CartCleanupJobParams configure the cart pruning job.
type CartCleanupJobParams struct {
	Logger *logger.Logger
	Carts  staleCartReader
}

type cartCleanupJob struct {
	logg  *logger.Logger
	carts staleCartReader
}

// NewCartCleanupJob builds the job that drops cart lines whose book was sold
// or deleted since it was added.
func NewCartCleanupJob(params CartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &cartCleanupJob{logg: params.Logger, carts: params.Carts}, nil
}

func (j *cartCleanupJob) Name() string {
	return cartCleanupJobName
}

func (j *cartCleanupJob) Run(ctx context.Context) error {
	stale, err := j.carts.StaleItemBookIDs(ctx)
	if err != nil {
		return fmt.Errorf("list stale cart books: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	removed, err := j.carts.DeleteItemsForBooks(ctx, stale)
	if err != nil {
		return fmt.Errorf("delete stale cart items: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "removed", removed), "pruned stale cart items")
	return nil
}
