package ride

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/observability"
	"github.com/example/carpool/internal/storage"
)

// Publisher pushes accepted position reports to a downstream channel
// (Kafka in production). Optional.
type Publisher interface {
	PublishPosition(ctx context.Context, rpt models.PositionReport) error
}

// Broadcaster fans an accepted report out to connected viewers. Optional.
type Broadcaster interface {
	Broadcast(rideID string, rpt models.PositionReport)
}

// Service owns the ride lifecycle: creation with hub-derived endpoints,
// live-position updates, the feed snapshot, deletion.
type Service struct {
	Store     storage.RideStore
	Hub       models.Coord
	Publisher Publisher
	Live      Broadcaster
	Logger    *slog.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Create validates the submission, derives origin and destination from
// the hub and the picked point, and persists the ride with its live
// position at the origin. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, in models.RideInput) (models.Ride, error) {
	if in.DriverName == "" || in.PhoneNumber == "" || in.SeatsAvailable <= 0 ||
		!in.TravelTime.Valid() || in.PickedLat == 0 || in.PickedLng == 0 {
		return models.Ride{}, &ValidationError{Msg: "missing required field"}
	}

	picked := models.Coord{Lat: in.PickedLat, Lng: in.PickedLng}
	origin, destination := s.endpoints(in.TravelTime, picked)

	r := models.Ride{
		DriverName:     in.DriverName,
		PhoneNumber:    in.PhoneNumber,
		SeatsAvailable: in.SeatsAvailable,
		TravelTime:     in.TravelTime,
		OriginLat:      origin.Lat,
		OriginLng:      origin.Lng,
		DestinationLat: destination.Lat,
		DestinationLng: destination.Lng,
		// tracking starts from the origin
		CurrentLat: origin.Lat,
		CurrentLng: origin.Lng,
	}
	created, err := s.Store.Insert(ctx, r)
	if err != nil {
		return models.Ride{}, err
	}
	observability.RidesCreated.Inc()
	if s.Logger != nil {
		s.Logger.Info("ride created", "ride_id", created.ID, "travel_time", created.TravelTime)
	}
	return created, nil
}

// endpoints applies the hub rule: morning commutes run picked->hub,
// evening commutes hub->picked.
func (s *Service) endpoints(t models.TravelTime, picked models.Coord) (origin, destination models.Coord) {
	if t == models.TravelMorning {
		return picked, s.Hub
	}
	return s.Hub, picked
}

// ReportPosition applies one live-position sample to a ride. Last write
// wins; no ordering of samples is enforced. A zero lat or lng is
// treated as an absent coordinate, as the reporting clients send zeros
// when no fix is available, so a legitimate equator or prime-meridian
// position is rejected too.
func (s *Service) ReportPosition(ctx context.Context, id string, lat, lng float64) (models.Ride, error) {
	if lat == 0 || lng == 0 {
		return models.Ride{}, &ValidationError{Msg: "missing coordinates"}
	}
	updated, err := s.Store.UpdatePosition(ctx, id, lat, lng)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Ride{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return models.Ride{}, err
	}
	observability.PositionUpdates.Inc()

	rpt := models.PositionReport{RideID: id, Lat: lat, Lng: lng, ReportedAt: s.now()}
	if s.Publisher != nil {
		// best-effort: the store already holds the position
		if err := s.Publisher.PublishPosition(ctx, rpt); err != nil {
			observability.PositionPublishFailures.Inc()
			if s.Logger != nil {
				s.Logger.Warn("position publish failed", "ride_id", id, "error", err)
			}
		}
	}
	if s.Live != nil {
		s.Live.Broadcast(id, rpt)
	}
	return updated, nil
}

// Feed returns the full current list of rides, newest first. An empty
// feed is a valid feed.
func (s *Service) Feed(ctx context.Context) ([]models.Ride, error) {
	rides, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	observability.FeedRequests.Inc()
	return rides, nil
}

// Delete removes a ride offer. There is no automatic expiry of stale
// rides; this is the only way a record leaves the feed.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	observability.RidesDeleted.Inc()
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
