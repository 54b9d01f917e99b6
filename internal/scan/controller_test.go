package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwin-i/NetWatch/internal/browser"
	"github.com/Yashwin-i/NetWatch/internal/classify"
	"github.com/Yashwin-i/NetWatch/internal/geo"
	"github.com/Yashwin-i/NetWatch/internal/history"
	"github.com/Yashwin-i/NetWatch/internal/shared/types"
	"github.com/Yashwin-i/NetWatch/internal/ws"
)

// fakeRenderer replays a scripted session through the hooks.
type fakeRenderer struct {
	mu       sync.Mutex
	target   string
	requests []types.RequestDescription
	security *types.SecurityDetail
	cookies  []types.CookieRecord
	err      error
	release  chan struct{} // when non-nil, Render blocks until closed
}

func (f *fakeRenderer) Render(ctx context.Context, targetURL string, hooks browser.Hooks) error {
	f.mu.Lock()
	f.target = targetURL
	f.mu.Unlock()

	if hooks.OnLaunched != nil {
		hooks.OnLaunched()
	}
	for _, r := range f.requests {
		if hooks.OnRequest != nil {
			hooks.OnRequest(r)
		}
	}
	if hooks.OnNavigated != nil {
		hooks.OnNavigated()
	}
	if f.security != nil && hooks.OnSecurity != nil {
		hooks.OnSecurity(*f.security)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	if hooks.OnCookies != nil {
		hooks.OnCookies(f.cookies)
	}
	return nil
}

func (f *fakeRenderer) renderedTarget() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

type broadcastMsg struct {
	Type    string
	Payload any
}

// recordingHub captures broadcasts instead of writing to connections.
type recordingHub struct {
	mu   sync.Mutex
	msgs []broadcastMsg
}

func (r *recordingHub) Broadcast(msgType string, payload any) {
	r.mu.Lock()
	r.msgs = append(r.msgs, broadcastMsg{Type: msgType, Payload: payload})
	r.mu.Unlock()
}

func (r *recordingHub) byType(msgType string) []broadcastMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcastMsg
	for _, m := range r.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func newTestController(t *testing.T, renderer Renderer) (*Controller, *history.Session, *recordingHub) {
	t.Helper()

	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","country":"Germany","lat":52.52,"lon":13.405}`)
	}))
	t.Cleanup(geoSrv.Close)

	hist := history.New()
	hub := &recordingHub{}
	c := NewController(
		renderer,
		classify.New(nil, nil),
		geo.New(geoSrv.URL, time.Second, nil),
		hist,
		hub,
		nil,
		nil,
	)
	return c, hist, hub
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want },
		2*time.Second, 10*time.Millisecond, "state never reached %s", want)
}

func TestScanCompleteFlow(t *testing.T) {
	renderer := &fakeRenderer{
		requests: []types.RequestDescription{
			{URL: "https://example.com/app.js", Method: "GET", ResourceType: "Script"},
			{URL: "http://ads.doubleclick.net/px?u=a@b.com", Method: "GET", ResourceType: "Image"},
		},
		security: &types.SecurityDetail{Protocol: "TLS 1.3", Issuer: "Test CA"},
		cookies:  []types.CookieRecord{{Name: "sid", Domain: "example.com"}},
	}
	c, hist, hub := newTestController(t, renderer)

	require.NoError(t, c.Start("https://example.com"))
	waitForState(t, c, StateComplete)

	snap := hist.Snapshot()
	require.Len(t, snap, 2)

	clean := snap[0]
	assert.Equal(t, "example.com", clean.Domain)
	assert.Empty(t, clean.Violations)
	assert.False(t, clean.IsTracker)
	assert.Equal(t, "Germany", clean.Geo.Country)

	dirty := snap[1]
	assert.Equal(t, "ads.doubleclick.net", dirty.Domain)
	assert.Len(t, dirty.Violations, 3)
	assert.True(t, dirty.IsTracker)

	assert.Len(t, hub.byType(ws.MsgTrafficUpdate), 2)
	require.Len(t, hub.byType(ws.MsgSecurityUpdate), 1)
	require.Len(t, hub.byType(ws.MsgCookieUpdate), 1)

	statuses := hub.byType(ws.MsgStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Scan Complete.", statuses[0].Payload)
}

func TestScanSingleSlot(t *testing.T) {
	renderer := &fakeRenderer{release: make(chan struct{})}
	c, _, _ := newTestController(t, renderer)

	require.NoError(t, c.Start("https://example.com"))
	waitForState(t, c, StateDraining)

	err := c.Start("https://other.com")
	assert.ErrorIs(t, err, ErrScanActive)

	close(renderer.release)
	waitForState(t, c, StateComplete)

	// Terminal state frees the slot.
	assert.NoError(t, c.Start("https://other.com"))
	waitForState(t, c, StateComplete)
}

func TestScanFailure(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("navigation failed: timeout")}
	c, _, hub := newTestController(t, renderer)

	require.NoError(t, c.Start("https://example.com"))
	waitForState(t, c, StateFailed)

	statuses := hub.byType(ws.MsgStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Error: navigation failed: timeout", statuses[0].Payload)
	assert.Empty(t, hub.byType(ws.MsgCookieUpdate))
}

func TestScanNormalizesTarget(t *testing.T) {
	renderer := &fakeRenderer{}
	c, _, _ := newTestController(t, renderer)

	require.NoError(t, c.Start("example.com/page"))
	waitForState(t, c, StateComplete)
	assert.Equal(t, "https://example.com/page", renderer.renderedTarget())
}

func TestScanRejectsBadTargets(t *testing.T) {
	c, _, _ := newTestController(t, &fakeRenderer{})

	assert.Error(t, c.Start(""))
	assert.Error(t, c.Start("   "))
	assert.Error(t, c.Start("https://"))
	assert.Equal(t, StateIdle, c.State())
}

func TestScanResetsHistory(t *testing.T) {
	renderer := &fakeRenderer{
		requests: []types.RequestDescription{
			{URL: "https://example.com/fresh", Method: "GET", ResourceType: "XHR"},
		},
	}
	c, hist, _ := newTestController(t, renderer)
	hist.Append(types.TrafficEvent{URL: "https://stale.example/old"})

	require.NoError(t, c.Start("https://example.com"))
	waitForState(t, c, StateComplete)

	snap := hist.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "https://example.com/fresh", snap[0].URL)
}

func TestStopSuppressesLateEvents(t *testing.T) {
	renderer := &lateEventRenderer{}
	c, hist, hub := newTestController(t, renderer)

	require.NoError(t, c.Start("https://example.com"))
	waitForState(t, c, StateDraining)

	c.Stop()
	waitForState(t, c, StateFailed)

	assert.Equal(t, 0, hist.Len())
	assert.Empty(t, hub.byType(ws.MsgTrafficUpdate))
}

// lateEventRenderer emits a request only after its context is cancelled,
// modeling an in-flight hook racing a stopped scan.
type lateEventRenderer struct{}

func (l *lateEventRenderer) Render(ctx context.Context, targetURL string, hooks browser.Hooks) error {
	if hooks.OnLaunched != nil {
		hooks.OnLaunched()
	}
	if hooks.OnNavigated != nil {
		hooks.OnNavigated()
	}
	<-ctx.Done()
	hooks.OnRequest(types.RequestDescription{URL: "https://example.com/late", Method: "GET"})
	return ctx.Err()
}
