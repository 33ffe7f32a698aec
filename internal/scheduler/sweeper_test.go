package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	testhelpers "github.com/polkiloo/coursemart/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewSweeperRejectsInvalidSpec(t *testing.T) {
	if _, err := NewSweeper(&testhelpers.SweepFacadeStub{}, "every now and then", discardLogger()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if _, err := NewSweeper(&testhelpers.SweepFacadeStub{}, "0 */15 * * * *", discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunReportsClosed(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{Closed: 3}
	s, _ := NewSweeper(facade, "@hourly", discardLogger())
	if closed := s.Run(context.Background()); closed != 3 {
		t.Fatalf("expected 3 closed, got %d", closed)
	}
	if facade.Calls() != 1 {
		t.Fatalf("expected one sweep, got %d", facade.Calls())
	}
}

func TestRunSwallowsError(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{Err: errors.New("db down")}
	s, _ := NewSweeper(facade, "@hourly", discardLogger())
	if closed := s.Run(context.Background()); closed != 0 {
		t.Fatalf("expected 0 closed on error, got %d", closed)
	}
}

func TestStartRunsOnSchedule(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{Called: make(chan struct{}, 4)}
	s, _ := NewSweeper(facade, "* * * * * *", discardLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-facade.Called:
	case <-time.After(3 * time.Second):
		t.Fatal("expected scheduled sweep")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
}
