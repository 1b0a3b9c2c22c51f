package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/carpool/internal/models"
)

// flakyCache implements CacheUpdater for tests
type flakyCache struct {
	fail  int // number of times to fail before succeeding
	calls int
	last  models.PositionReport
}

func (f *flakyCache) Publish(ctx context.Context, rpt models.PositionReport) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("cache fail")
	}
	f.last = rpt
	return nil
}

func TestUpdateCacheWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &flakyCache{fail: 2}
	rpt := models.PositionReport{RideID: "r1", Lat: 17.41, Lng: 78.41}
	start := time.Now()
	if err := updateCacheWithRetry(context.Background(), f, rpt, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected retries, got %d calls", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.last.RideID != "r1" {
		t.Fatalf("report not applied: %+v", f.last)
	}
}

func TestUpdateCacheWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &flakyCache{fail: 5}
	rpt := models.PositionReport{RideID: "r1", Lat: 1, Lng: 2}
	if err := updateCacheWithRetry(context.Background(), f, rpt, 3, time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestUpdateCacheWithRetry_StopsOnCancel(t *testing.T) {
	f := &flakyCache{fail: 5}
	rpt := models.PositionReport{RideID: "r1", Lat: 1, Lng: 2}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := updateCacheWithRetry(ctx, f, rpt, 3, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("backoff ignored cancellation, took %s", time.Since(start))
	}
	if f.calls != 1 {
		t.Fatalf("expected no further attempts after cancel, got %d", f.calls)
	}
}
