package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/history"
	"github.com/Yashwin-i/NetWatch/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // observers are unauthenticated by design
	},
}

// ScanStarter begins a scan; it reports an error when another scan is
// already active.
type ScanStarter interface {
	Start(targetURL string) error
}

// ClientMessage is the JSON frame read from observers.
type ClientMessage struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Handler manages observer WebSocket connections.
type Handler struct {
	hub     *Hub
	history *history.Session
	scanner ScanStarter
	logger  *logging.Logger
}

// NewHandler creates the observer protocol handler.
func NewHandler(hub *Hub, hist *history.Session, scanner ScanStarter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Handler{hub: hub, history: hist, scanner: scanner, logger: logger}
}

// HandleConnection upgrades the request and serves the observer until it
// disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	o := &observer{conn: conn}
	h.hub.register(o)
	defer h.hub.unregister(o)

	o.send(Envelope{Type: MsgSystem, Payload: "Connected to NetWatch"})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("observer read ended", zap.Error(err))
			return
		}
		if h.hub.metrics != nil {
			h.hub.metrics.WSMessages.WithLabelValues("in", msg.Type).Inc()
		}

		switch msg.Type {
		case "start-tracking":
			h.handleStartTracking(o, msg.URL)
		case "request-history":
			// Late joiners get the traffic backlog only; past status,
			// security and cookie broadcasts are not replayed.
			o.send(Envelope{Type: MsgTrafficHistory, Payload: h.history.Snapshot()})
		case "ping":
			o.send(Envelope{Type: MsgPong})
		default:
			o.send(Envelope{Type: MsgError, Payload: "unknown message type"})
		}
	}
}

func (h *Handler) handleStartTracking(o *observer, targetURL string) {
	if err := h.scanner.Start(targetURL); err != nil {
		// Rejection goes to the requester only; other observers are still
		// watching a healthy scan.
		o.send(Envelope{Type: MsgStatus, Payload: "Error: " + err.Error()})
	}
}
