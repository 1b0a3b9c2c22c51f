package models

import "time"

// Coord is a WGS84 position in signed degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TravelTime is the commute direction relative to the hub.
type TravelTime string

const (
	TravelMorning TravelTime = "morning" // toward the hub
	TravelEvening TravelTime = "evening" // away from the hub
)

func (t TravelTime) Valid() bool {
	return t == TravelMorning || t == TravelEvening
}

// Ride is a published ride offer. Origin, destination and the driver
// fields are fixed at creation; only currentLat/currentLng change
// afterwards, through position reports.
type Ride struct {
	ID             string     `json:"id"`
	DriverName     string     `json:"driverName"`
	PhoneNumber    string     `json:"phoneNumber"`
	SeatsAvailable int        `json:"seatsAvailable"`
	TravelTime     TravelTime `json:"travelTime"`
	OriginLat      float64    `json:"originLat"`
	OriginLng      float64    `json:"originLng"`
	DestinationLat float64    `json:"destinationLat"`
	DestinationLng float64    `json:"destinationLng"`
	CurrentLat     float64    `json:"currentLat"`
	CurrentLng     float64    `json:"currentLng"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Current returns the last-known live position.
func (r Ride) Current() Coord {
	return Coord{Lat: r.CurrentLat, Lng: r.CurrentLng}
}

// RideInput is the creation payload. The picked coordinate is the
// non-hub endpoint of the commute; which end it becomes depends on
// the travel time.
type RideInput struct {
	DriverName     string     `json:"driverName"`
	PhoneNumber    string     `json:"phoneNumber"`
	SeatsAvailable int        `json:"seatsAvailable"`
	TravelTime     TravelTime `json:"travelTime"`
	PickedLat      float64    `json:"pickedLat"`
	PickedLng      float64    `json:"pickedLng"`
}

// PositionReport is one accepted live-position sample. It is what goes
// onto the Kafka topic and out to WebSocket viewers.
type PositionReport struct {
	RideID     string    `json:"rideId"`
	Lat        float64   `json:"currentLat"`
	Lng        float64   `json:"currentLng"`
	ReportedAt time.Time `json:"reportedAt"`
}
