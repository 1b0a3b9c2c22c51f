package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/carpool/internal/livemap"
	"github.com/example/carpool/internal/logging"
	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/ride"
	"github.com/example/carpool/internal/storage"
)

var testHub = models.Coord{Lat: 17.3805, Lng: 78.3824}

func newTestServer() (*Server, *storage.MemoryStore, *livemap.MemoryCache) {
	store := storage.NewMemoryStore()
	cache := livemap.NewMemoryCache()
	svc := &ride.Service{Store: store, Hub: testHub}
	return NewServer(svc, cache, nil, logging.NewLogger("error")), store, cache
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSONWithHeader(t *testing.T, s *Server, method, path string, body any, key, value string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(key, value)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func createRide(t *testing.T, s *Server) models.Ride {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/rides", models.RideInput{
		DriverName:     "Asha",
		PhoneNumber:    "+911234567890",
		SeatsAvailable: 2,
		TravelTime:     models.TravelMorning,
		PickedLat:      17.40,
		PickedLng:      78.40,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Ride models.Ride `json:"ride"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out.Ride
}

func TestCreateRideReturnsPersistedRecord(t *testing.T) {
	s, _, _ := newTestServer()
	r := createRide(t, s)
	if r.ID == "" {
		t.Fatal("expected id in response")
	}
	if r.OriginLat != 17.40 || r.DestinationLat != testHub.Lat {
		t.Fatalf("endpoints wrong: origin %f dest %f", r.OriginLat, r.DestinationLat)
	}
	if r.CurrentLat != r.OriginLat || r.CurrentLng != r.OriginLng {
		t.Fatal("current position should equal origin after create")
	}
}

func TestCreateRideMissingFieldIsRejected(t *testing.T) {
	s, store, _ := newTestServer()
	rec := doJSON(t, s, http.MethodPost, "/api/rides", map[string]any{
		"driverName":  "Asha",
		"phoneNumber": "+911234567890",
		// seatsAvailable omitted
		"travelTime": "morning",
		"pickedLat":  17.40,
		"pickedLng":  78.40,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rides, _ := store.List(context.Background())
	if len(rides) != 0 {
		t.Fatalf("invalid submission persisted: %d rides", len(rides))
	}
}

func TestListRidesFeedOrder(t *testing.T) {
	s, _, _ := newTestServer()
	first := createRide(t, s)
	second := createRide(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/rides", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var rides []models.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &rides); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("expected 2 rides, got %d", len(rides))
	}
	if rides[0].ID != second.ID || rides[1].ID != first.ID {
		t.Fatal("feed must be newest first")
	}
}

func TestUpdateLocation(t *testing.T) {
	s, _, _ := newTestServer()
	r := createRide(t, s)

	rec := doJSON(t, s, http.MethodPut, "/api/rides/"+r.ID+"/location",
		map[string]float64{"currentLat": 17.41, "currentLng": 78.41})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	list := doJSON(t, s, http.MethodGet, "/api/rides", nil)
	var rides []models.Ride
	_ = json.Unmarshal(list.Body.Bytes(), &rides)
	if rides[0].CurrentLat != 17.41 || rides[0].CurrentLng != 78.41 {
		t.Fatalf("feed does not reflect update: %f,%f", rides[0].CurrentLat, rides[0].CurrentLng)
	}
	if rides[0].DriverName != r.DriverName || rides[0].OriginLat != r.OriginLat {
		t.Fatal("update touched immutable fields")
	}
}

func TestUpdateLocationUnknownRide(t *testing.T) {
	s, store, _ := newTestServer()
	rec := doJSON(t, s, http.MethodPut, "/api/rides/unknown/location",
		map[string]float64{"currentLat": 17.41, "currentLng": 78.41})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rides, _ := store.List(context.Background())
	if len(rides) != 0 {
		t.Fatal("unknown-id update must not create records")
	}
}

func TestUpdateLocationMissingCoordinates(t *testing.T) {
	s, _, _ := newTestServer()
	r := createRide(t, s)
	rec := doJSON(t, s, http.MethodPut, "/api/rides/"+r.ID+"/location",
		map[string]float64{"currentLat": 17.41})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "missing coordinates" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestDeleteRide(t *testing.T) {
	s, _, _ := newTestServer()
	r := createRide(t, s)

	rec := doJSON(t, s, http.MethodDelete, "/api/rides/"+r.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	list := doJSON(t, s, http.MethodGet, "/api/rides", nil)
	var rides []models.Ride
	_ = json.Unmarshal(list.Body.Bytes(), &rides)
	if len(rides) != 0 {
		t.Fatal("ride still in feed after delete")
	}
}

func TestGetPositionPrefersCache(t *testing.T) {
	s, _, cache := newTestServer()
	r := createRide(t, s)

	// no cache entry yet: falls back to the record
	rec := doJSON(t, s, http.MethodGet, "/api/rides/"+r.ID+"/position", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("position: status %d", rec.Code)
	}
	var rpt models.PositionReport
	_ = json.Unmarshal(rec.Body.Bytes(), &rpt)
	if rpt.Lat != r.OriginLat || rpt.Lng != r.OriginLng {
		t.Fatalf("fallback position wrong: %f,%f", rpt.Lat, rpt.Lng)
	}

	_ = cache.Publish(context.Background(), models.PositionReport{RideID: r.ID, Lat: 17.99, Lng: 78.99})
	rec = doJSON(t, s, http.MethodGet, "/api/rides/"+r.ID+"/position", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &rpt)
	if rpt.Lat != 17.99 || rpt.Lng != 78.99 {
		t.Fatalf("cache entry not served: %f,%f", rpt.Lat, rpt.Lng)
	}
}

func TestGetPositionUnknownRide(t *testing.T) {
	s, _, _ := newTestServer()
	rec := doJSON(t, s, http.MethodGet, "/api/rides/unknown/position", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
