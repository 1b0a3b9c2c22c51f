package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/example/carpool/internal/client"
	"github.com/example/carpool/internal/logging"
	"github.com/example/carpool/internal/models"
)

// tracker drives the reporting side of the protocol: it creates a ride
// (or attaches to an existing one) and forwards position samples read
// from stdin, one "lat,lng" pair per line, to the API. The ride is
// always created before reporting starts; the server-assigned id is
// what the samples are tagged with.
func main() {
	var (
		apiURL = flag.String("api", "http://localhost:8080", "carpool API base URL")
		rideID = flag.String("ride", "", "attach to an existing ride instead of creating one")
		name   = flag.String("name", "", "driver name")
		phone  = flag.String("phone", "", "driver phone number")
		seats  = flag.Int("seats", 1, "seats available")
		travel = flag.String("time", "morning", "travel time: morning or evening")
		lat    = flag.Float64("lat", 0, "picked latitude")
		lng    = flag.Float64("lng", 0, "picked longitude")
	)
	flag.Parse()

	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	api := client.New(*apiURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := *rideID
	if id == "" {
		created, err := api.CreateRide(ctx, models.RideInput{
			DriverName:     *name,
			PhoneNumber:    *phone,
			SeatsAvailable: *seats,
			TravelTime:     models.TravelTime(*travel),
			PickedLat:      *lat,
			PickedLng:      *lng,
		})
		if err != nil {
			logger.Error("ride creation failed", "error", err)
			os.Exit(1)
		}
		id = created.ID
		logger.Info("ride created", "ride_id", id,
			"origin_lat", created.OriginLat, "origin_lng", created.OriginLng)
	}

	samples := make(chan client.PositionSample)
	go func() {
		defer close(samples)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			sample, ok := parseSample(scanner.Text())
			if !ok {
				logger.Warn("skipping malformed sample", "line", scanner.Text())
				continue
			}
			select {
			case samples <- sample:
			case <-ctx.Done():
				return
			}
		}
	}()

	rep := &client.Reporter{Sink: api, RideID: id, Samples: samples, Logger: logger}
	if err := rep.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("reporter stopped", "error", err)
		os.Exit(1)
	}
}

func parseSample(line string) (client.PositionSample, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), ",", 2)
	if len(parts) != 2 {
		return client.PositionSample{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return client.PositionSample{}, false
	}
	return client.PositionSample{Lat: lat, Lng: lng, At: time.Now()}, true
}
