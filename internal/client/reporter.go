package client

import (
	"context"
	"log/slog"
	"time"
)

// PositionSample is one reading from a position source, typically a
// device geolocation watch.
type PositionSample struct {
	Lat float64
	Lng float64
	At  time.Time
}

// PositionSink is the write side of the API the reporter feeds.
type PositionSink interface {
	ReportPosition(ctx context.Context, rideID string, lat, lng float64) error
}

// Reporter forwards every sample from a position watch to the server.
// A failed report is logged and skipped; the subscription itself never
// stops on a send failure. Run returns when the sample channel closes
// or the context is cancelled.
type Reporter struct {
	Sink    PositionSink
	RideID  string
	Samples <-chan PositionSample
	Logger  *slog.Logger
}

func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-r.Samples:
			if !ok {
				return nil
			}
			if err := r.Sink.ReportPosition(ctx, r.RideID, sample.Lat, sample.Lng); err != nil {
				if r.Logger != nil {
					r.Logger.Warn("position report failed", "ride_id", r.RideID, "error", err)
				}
			}
		}
	}
}
