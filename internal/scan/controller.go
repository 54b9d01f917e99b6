// Package scan owns the lifecycle of a browsing session. The controller
// holds a single scan slot, walks the scan through its states, and wires
// intercepted requests through decode, classification and geolocation
// before they reach the session history and the observers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/browser"
	"github.com/Yashwin-i/NetWatch/internal/classify"
	"github.com/Yashwin-i/NetWatch/internal/decode"
	"github.com/Yashwin-i/NetWatch/internal/geo"
	"github.com/Yashwin-i/NetWatch/internal/history"
	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/monitoring"
	"github.com/Yashwin-i/NetWatch/internal/shared/types"
	"github.com/Yashwin-i/NetWatch/internal/ws"
)

// State is a scan lifecycle phase.
type State string

const (
	StateIdle         State = "idle"
	StateLaunching    State = "launching"
	StateIntercepting State = "intercepting"
	StateDraining     State = "draining"
	StateFinalizing   State = "finalizing"
	StateComplete     State = "complete"
	StateFailed       State = "failed"
)

// ErrScanActive is returned by Start while a scan occupies the slot.
var ErrScanActive = errors.New("scan already in progress")

// Renderer runs one browser session and feeds events back through hooks.
// *browser.Renderer is the production implementation.
type Renderer interface {
	Render(ctx context.Context, targetURL string, hooks browser.Hooks) error
}

// Broadcaster delivers envelopes to all connected observers.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Controller runs at most one scan at a time. Start rejects while a scan
// is active; once the previous scan reaches a terminal state the slot
// frees and a new Start is accepted.
type Controller struct {
	renderer   Renderer
	classifier *classify.Classifier
	enricher   *geo.Enricher
	history    *history.Session
	hub        Broadcaster
	logger     *logging.Logger
	metrics    *monitoring.Metrics

	mu     sync.Mutex
	state  State
	scanID string
	cancel context.CancelFunc
}

// NewController wires the scan pipeline together.
func NewController(
	renderer Renderer,
	classifier *classify.Classifier,
	enricher *geo.Enricher,
	hist *history.Session,
	hub Broadcaster,
	logger *logging.Logger,
	metrics *monitoring.Metrics,
) *Controller {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Controller{
		renderer:   renderer,
		classifier: classifier,
		enricher:   enricher,
		history:    hist,
		hub:        hub,
		logger:     logger,
		metrics:    metrics,
		state:      StateIdle,
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start claims the scan slot, resets the session history, and launches the
// scan in the background. It returns ErrScanActive while a scan is running
// and an error for target URLs that cannot be parsed.
func (c *Controller) Start(targetURL string) error {
	target, mainDomain, err := normalizeTarget(targetURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	switch c.state {
	case StateIdle, StateComplete, StateFailed:
	default:
		c.mu.Unlock()
		return ErrScanActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.state = StateLaunching
	c.scanID = uuid.New().String()
	c.cancel = cancel
	scanID := c.scanID
	c.mu.Unlock()

	c.history.Reset()
	c.logger.Info("scan starting",
		zap.String("scan_id", scanID),
		zap.String("target", target),
		zap.String("main_domain", mainDomain),
	)

	go c.run(ctx, scanID, target, mainDomain)
	return nil
}

// Stop cancels the active scan, if any. Events still in flight are
// discarded rather than appended or broadcast.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) run(ctx context.Context, scanID, target, mainDomain string) {
	started := time.Now()

	hooks := browser.Hooks{
		OnLaunched: func() {
			c.setState(StateIntercepting)
		},
		OnNavigated: func() {
			c.setState(StateDraining)
		},
		OnRequest: func(req types.RequestDescription) {
			c.processRequest(ctx, req, mainDomain)
		},
		OnSecurity: func(detail types.SecurityDetail) {
			if ctx.Err() != nil {
				return
			}
			c.hub.Broadcast(ws.MsgSecurityUpdate, detail)
		},
		OnCookies: func(cookies []types.CookieRecord) {
			c.setState(StateFinalizing)
			if ctx.Err() != nil {
				return
			}
			c.hub.Broadcast(ws.MsgCookieUpdate, cookies)
		},
	}

	err := c.renderer.Render(ctx, target, hooks)
	duration := time.Since(started)

	// The render is over; any hook still in flight belongs to a finished
	// scan and must not reach history or observers.
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.setState(StateFailed)
		c.logger.Error("scan failed",
			zap.String("scan_id", scanID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordScan("failed", duration)
		}
		c.hub.Broadcast(ws.MsgStatus, fmt.Sprintf("Error: %s", err))
		return
	}

	c.setState(StateComplete)
	c.logger.Info("scan complete",
		zap.String("scan_id", scanID),
		zap.Duration("duration", duration),
		zap.Int("requests", c.history.Len()),
	)
	if c.metrics != nil {
		c.metrics.RecordScan("complete", duration)
	}
	c.hub.Broadcast(ws.MsgStatus, "Scan Complete.")
}

// processRequest runs one intercepted request through the pipeline. Hooks
// fire concurrently, so everything here must be safe to run in parallel.
func (c *Controller) processRequest(ctx context.Context, req types.RequestDescription, mainDomain string) {
	payload := decode.Decode(req.Body)
	violations, isTracker := c.classifier.Classify(req, payload.Text, mainDomain)
	domain := hostnameOf(req.URL)
	location := c.enricher.Resolve(ctx, domain)

	event := types.TrafficEvent{
		URL:          req.URL,
		Method:       req.Method,
		ResourceType: req.ResourceType,
		Domain:       domain,
		Violations:   violations,
		Geo:          location,
		IsTracker:    isTracker,
		Payload:      payload.Text,
	}

	// A cancelled scan must not mutate history or reach observers.
	if ctx.Err() != nil {
		return
	}
	c.history.Append(event)
	c.hub.Broadcast(ws.MsgTrafficUpdate, event)

	if c.metrics != nil {
		c.metrics.RequestsSeen.Inc()
		if isTracker {
			c.metrics.TrackersSeen.Inc()
		}
		for _, v := range violations {
			c.metrics.ViolationsSeen.WithLabelValues(string(v.Severity)).Inc()
		}
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// normalizeTarget fills in a missing scheme and extracts the main domain
// used for first-party versus third-party tracker attribution.
func normalizeTarget(raw string) (target, mainDomain string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("target URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", "", errors.New("target URL has no host")
	}
	return u.String(), u.Hostname(), nil
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
