package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const streamWriteTimeout = 10 * time.Second

// StreamHandler pushes timer snapshots over a websocket at a fixed interval,
// so overlays can render without polling the RPC surface.
type StreamHandler struct {
	svc      *Service
	clock    clockwork.Clock
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a stream handler pushing every interval.
func NewStreamHandler(svc *Service, clock clockwork.Clock, interval time.Duration) *StreamHandler {
	return &StreamHandler{
		svc:      svc,
		clock:    clock,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local-session trust boundary, same as the RPC surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the stream endpoint on mux.
func (h *StreamHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/timer", h.HandleTimerStream)
}

// HandleTimerStream upgrades the connection and streams snapshots until the
// client goes away.
func (h *StreamHandler) HandleTimerStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade timer stream connection")
		return
	}
	log.Debug().Str("remote", r.RemoteAddr).Msg("timer stream connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain control/close frames; the stream is write-only otherwise.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Debug().Str("remote", r.RemoteAddr).Msg("timer stream disconnected")
			return
		case <-ticker.Chan():
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(h.svc.Snapshot()); err != nil {
				log.Debug().Err(err).Msg("timer stream write failed")
				return
			}
		}
	}
}
