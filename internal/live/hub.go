package live

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/observability"
)

// conn is the subset of a websocket connection the hub needs, kept
// small for tests.
type conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// session is one connected viewer watching a single ride.
type session struct {
	conn conn
	mu   sync.Mutex
}

func (s *session) send(rpt models.PositionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(rpt)
}

// Hub holds viewer sessions keyed by the ride they watch. Position
// reports accepted by the server are fanned out to every watcher of
// that ride; dead connections are pruned on write failure.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string][]*session
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{viewers: make(map[string][]*session), logger: logger}
}

func (h *Hub) Add(rideID string, c *websocket.Conn) {
	h.add(rideID, c)
}

func (h *Hub) add(rideID string, c conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewers[rideID] = append(h.viewers[rideID], &session{conn: c})
	observability.ViewersConnected.Inc()
}

func (h *Hub) Broadcast(rideID string, rpt models.PositionReport) {
	h.mu.RLock()
	sessions := h.viewers[rideID]
	h.mu.RUnlock()
	if len(sessions) == 0 {
		return
	}
	var dead []*session
	for _, s := range sessions {
		if err := s.send(rpt); err != nil {
			if h.logger != nil {
				h.logger.Debug("viewer write failed", "ride_id", rideID, "error", err)
			}
			dead = append(dead, s)
		}
	}
	if len(dead) > 0 {
		h.prune(rideID, dead)
	}
}

func (h *Hub) prune(rideID string, dead []*session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.viewers[rideID][:0]
	for _, s := range h.viewers[rideID] {
		drop := false
		for _, d := range dead {
			if s == d {
				drop = true
				break
			}
		}
		if drop {
			_ = s.conn.Close()
			observability.ViewersConnected.Dec()
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		delete(h.viewers, rideID)
		return
	}
	h.viewers[rideID] = kept
}
