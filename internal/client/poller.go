package client

import (
	"context"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
)

// RideView is the presentation sink the poller feeds: the full snapshot
// on every tick, and the focused ride whenever a selection resolves.
type RideView interface {
	ShowRides([]models.Ride)
	FocusRide(models.Ride)
}

// FeedSource is the read side of the API the poller polls.
type FeedSource interface {
	ListRides(ctx context.Context) ([]models.Ride, error)
}

// Poller refreshes the ride feed on a fixed interval and reconciles the
// selected ride against each new snapshot, so a focused view follows
// live-position changes. A fetch failure goes to OnError and the loop
// keeps its cadence; the last good snapshot stays on the view. If the
// selected ride disappears from a snapshot the previous focus is left
// as-is rather than cleared.
type Poller struct {
	Source   FeedSource
	View     RideView
	Interval time.Duration
	OnError  func(error)

	mu       sync.Mutex
	selected string
	rides    []models.Ride
}

// Select marks a ride for focused viewing; the focus refreshes on the
// next tick. Selection is owned here, not by the view.
func (p *Poller) Select(id string) {
	p.mu.Lock()
	p.selected = id
	p.mu.Unlock()
}

func (p *Poller) ClearSelection() {
	p.mu.Lock()
	p.selected = ""
	p.mu.Unlock()
}

// Rides returns the last good snapshot.
func (p *Poller) Rides() []models.Ride {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Ride, len(p.rides))
	copy(out, p.rides)
	return out
}

// Run polls until ctx is cancelled. The ticker is released on every
// exit path.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	rides, err := p.Source.ListRides(ctx)
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return
	}

	p.mu.Lock()
	p.rides = rides
	selected := p.selected
	p.mu.Unlock()

	p.View.ShowRides(rides)
	if selected == "" {
		return
	}
	for _, r := range rides {
		if r.ID == selected {
			p.View.FocusRide(r)
			return
		}
	}
}
