package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/monitoring"
)

// Wire message types.
const (
	MsgTrafficUpdate  = "traffic-update"
	MsgTrafficHistory = "traffic-history"
	MsgSecurityUpdate = "security-update"
	MsgCookieUpdate   = "cookie-update"
	MsgStatus         = "status"
	MsgSystem         = "system"
	MsgPong           = "pong"
	MsgError          = "error"
)

// Envelope is the JSON frame sent to observers.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// observer wraps a connection with a write lock; gorilla allows only one
// concurrent writer per connection.
type observer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (o *observer) send(v any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteJSON(v)
}

// Hub fans out events to all currently connected observers. The observer set
// grows and shrinks independently of the scan lifecycle.
type Hub struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu        sync.RWMutex
	observers map[*observer]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Hub{
		logger:    logger,
		metrics:   metrics,
		observers: make(map[*observer]struct{}),
	}
}

func (h *Hub) register(o *observer) {
	h.mu.Lock()
	h.observers[o] = struct{}{}
	count := len(h.observers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(count))
	}
}

func (h *Hub) unregister(o *observer) {
	h.mu.Lock()
	delete(h.observers, o)
	count := len(h.observers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(count))
	}
}

// Broadcast sends one typed event to every connected observer. A failed
// write only logs; slow or dead observers never block the pipeline for the
// rest.
func (h *Hub) Broadcast(msgType string, payload any) {
	h.mu.RLock()
	targets := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.RUnlock()

	env := Envelope{Type: msgType, Payload: payload}
	for _, o := range targets {
		if err := o.send(env); err != nil {
			h.logger.Debug("observer write failed", zap.Error(err))
		}
	}
	if h.metrics != nil {
		h.metrics.WSMessages.WithLabelValues("out", msgType).Add(float64(len(targets)))
	}
}

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
