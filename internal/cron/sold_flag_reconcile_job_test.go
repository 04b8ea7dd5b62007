package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubReconReader struct {
	orphaned    []uuid.UUID
	lost        []uuid.UUID
	orphanedErr error
	lostErr     error
}

func (s *stubReconReader) SoldBookIDsWithoutOrder(ctx context.Context) ([]uuid.UUID, error) {
	return s.orphaned, s.orphanedErr
}

func (s *stubReconReader) OrderedBookIDsNotSold(ctx context.Context) ([]uuid.UUID, error) {
	return s.lost, s.lostErr
}

type stubBookWriter struct {
	released   []uuid.UUID
	marked     []uuid.UUID
	markErr    error
	releaseErr error
}

func (s *stubBookWriter) MarkSold(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	s.marked = append(s.marked, id)
	return true, nil
}

func (s *stubBookWriter) MarkAvailable(ctx context.Context, ids []uuid.UUID) error {
	if s.releaseErr != nil {
		return s.releaseErr
	}
	s.released = append(s.released, ids...)
	return nil
}

func TestSoldFlagReconcileRepairsBothDirections(t *testing.T) {
	orphaned := uuid.New()
	lost := uuid.New()
	reader := &stubReconReader{
		orphaned: []uuid.UUID{orphaned},
		lost:     []uuid.UUID{lost},
	}
	writer := &stubBookWriter{}

	job, err := NewSoldFlagReconcileJob(SoldFlagReconcileJobParams{
		Logger: testLogger(),
		Orders: reader,
		Books:  writer,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.released) != 1 || writer.released[0] != orphaned {
		t.Fatal("expected orphaned sold book to be released")
	}
	if len(writer.marked) != 1 || writer.marked[0] != lost {
		t.Fatal("expected ordered book to be re-flagged sold")
	}
}

func TestSoldFlagReconcileContinuesPastReleaseFailure(t *testing.T) {
	reader := &stubReconReader{
		orphaned: []uuid.UUID{uuid.New()},
		lost:     []uuid.UUID{uuid.New()},
	}
	writer := &stubBookWriter{releaseErr: errors.New("db down")}

	job, err := NewSoldFlagReconcileJob(SoldFlagReconcileJobParams{
		Logger: testLogger(),
		Orders: reader,
		Books:  writer,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	err = job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	// the forward repair still ran
	if len(writer.marked) != 1 {
		t.Fatal("expected sold-flag restore despite release failure")
	}
}

func TestSoldFlagReconcileNoopWhenConsistent(t *testing.T) {
	writer := &stubBookWriter{}
	job, err := NewSoldFlagReconcileJob(SoldFlagReconcileJobParams{
		Logger: testLogger(),
		Orders: &stubReconReader{},
		Books:  writer,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.released) != 0 || len(writer.marked) != 0 {
		t.Fatal("expected no writes for a consistent inventory")
	}
}
