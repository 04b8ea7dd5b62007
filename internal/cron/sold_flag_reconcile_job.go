package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pageturn/bookmarket-backend/pkg/logger"
)

const soldFlagReconcileJobName = "sold_flag_reconcile"

type reconciliationReader interface {
	SoldBookIDsWithoutOrder(ctx context.Context) ([]uuid.UUID, error)
	OrderedBookIDsNotSold(ctx context.Context) ([]uuid.UUID, error)
}

type bookFlagWriter interface {
	MarkSold(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAvailable(ctx context.Context, ids []uuid.UUID) error
}

// SoldFlagReconcileJobParams configure the nightly inventory repair pass.
type SoldFlagReconcileJobParams struct {
	Logger *logger.Logger
	Orders reconciliationReader
	Books  bookFlagWriter
}

type soldFlagReconcileJob struct {
	logg   *logger.Logger
	orders reconciliationReader
	books  bookFlagWriter
}

// NewSoldFlagReconcileJob builds the job that realigns sold flags with order rows.
// A sold flag without an order means a failed checkout left the copy off the
// market; an order row over an unsold copy means the reservation was lost.
func NewSoldFlagReconcileJob(params SoldFlagReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Books == nil {
		return nil, fmt.Errorf("books writer required")
	}
	return &soldFlagReconcileJob{
		logg:   params.Logger,
		orders: params.Orders,
		books:  params.Books,
	}, nil
}

func (j *soldFlagReconcileJob) Name() string {
	return soldFlagReconcileJobName
}

func (j *soldFlagReconcileJob) Run(ctx context.Context) error {
	var errs error

	orphaned, err := j.orders.SoldBookIDsWithoutOrder(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list orphaned sold books: %w", err))
	} else if len(orphaned) > 0 {
		if err := j.books.MarkAvailable(ctx, orphaned); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("release orphaned books: %w", err))
		} else {
			j.logg.Info(j.logg.WithField(ctx, "released", len(orphaned)), "returned sold books without orders to the market")
		}
	}

	lost, err := j.orders.OrderedBookIDsNotSold(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list ordered unsold books: %w", err))
		return errs
	}
	repaired := 0
	for _, id := range lost {
		won, err := j.books.MarkSold(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restore sold flag for %s: %w", id, err))
			continue
		}
		if won {
			repaired++
		}
	}
	if repaired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "repaired", repaired), "restored sold flags for ordered books")
	}

	return errs
}
