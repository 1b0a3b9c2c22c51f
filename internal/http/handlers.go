package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/carpool/internal/live"
	"github.com/example/carpool/internal/livemap"
	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/ride"
)

type Server struct {
	Rides *ride.Service
	Cache livemap.Cache
	Hub   *live.Hub

	logger  *slog.Logger
	mux     *mux.Router
	handler http.Handler
}

// NewServer wires the REST surface over the ride service. The viewer
// hub and the position cache are optional; their routes degrade
// gracefully when absent.
func NewServer(rides *ride.Service, cache livemap.Cache, hub *live.Hub, logger *slog.Logger) *Server {
	s := &Server{Rides: rides, Cache: cache, Hub: hub, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	// the browser client is served from a different origin
	s.handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/rides", s.handleListRides).Methods("GET")
	s.mux.HandleFunc("/api/rides", s.handleCreateRide).Methods("POST")
	s.mux.HandleFunc("/api/rides/{id}/location", s.handleUpdateLocation).Methods("PUT")
	s.mux.HandleFunc("/api/rides/{id}/position", s.handleGetPosition).Methods("GET")
	s.mux.HandleFunc("/api/rides/{id}", s.handleDeleteRide).Methods("DELETE")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/rides/{id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := s.Rides.Feed(r.Context())
	if err != nil {
		s.log(r.Context()).Error("feed fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error fetching rides")
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	var in models.RideInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.Rides.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "ride added successfully", "ride": created})
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		CurrentLat float64 `json:"currentLat"`
		CurrentLng float64 `json:"currentLng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.Rides.ReportPosition(r.Context(), id, body.CurrentLat, body.CurrentLng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "location updated", "ride": updated})
}

// handleGetPosition serves the last-known position from the cache when
// one is attached, falling back to the record itself.
func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.Cache != nil {
		rpt, ok, err := s.Cache.Lookup(r.Context(), id)
		if err != nil {
			s.log(r.Context()).Warn("position cache lookup failed", "ride_id", id, "error", err)
		} else if ok {
			writeJSON(w, http.StatusOK, rpt)
			return
		}
	}
	rides, err := s.Rides.Feed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error fetching position")
		return
	}
	for _, rd := range rides {
		if rd.ID == id {
			writeJSON(w, http.StatusOK, models.PositionReport{RideID: id, Lat: rd.CurrentLat, Lng: rd.CurrentLng})
			return
		}
	}
	writeError(w, http.StatusNotFound, "ride "+id+" not found")
}

func (s *Server) handleDeleteRide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.Rides.Delete(r.Context(), id); err != nil {
		s.log(r.Context()).Error("delete failed", "ride_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete ride")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ride deleted successfully"})
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "live updates not enabled", http.StatusNotImplemented)
		return
	}
	id := mux.Vars(r)["id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.Hub.Add(id, conn)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ride.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	}
	var nferr *ride.NotFoundError
	if errors.As(err, &nferr) {
		writeError(w, http.StatusNotFound, nferr.Error())
		return
	}
	s.log(r.Context()).Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
