// Package browser drives the headless Chrome session that renders the
// target page. It speaks CDP through chromedp: every outgoing request is
// paused by the fetch domain, reported through the hooks, and explicitly
// continued so the transfer proceeds no matter how the request was
// classified.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/config"
	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/shared/types"
)

// Hooks receive pipeline events during a render. OnRequest runs once per
// intercepted request, concurrently across requests; the request is
// acknowledged after it returns. OnSecurity fires at most once, for the
// top-level document response. OnCookies fires once just before teardown.
// OnLaunched and OnNavigated mark lifecycle edges for the caller's state
// tracking.
type Hooks struct {
	OnLaunched  func()
	OnNavigated func()
	OnRequest   func(req types.RequestDescription)
	OnSecurity  func(detail types.SecurityDetail)
	OnCookies   func(cookies []types.CookieRecord)
}

// Renderer launches one Chrome session per Render call.
type Renderer struct {
	cfg    config.BrowserConfig
	logger *logging.Logger
}

// New creates a renderer.
func New(cfg config.BrowserConfig, logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Render navigates to targetURL, intercepts all network activity until the
// navigation completes plus the drain delay, collects cookies, and tears the
// browser down. Launch and navigation errors are returned; teardown runs on
// every path.
func (r *Renderer) Render(ctx context.Context, targetURL string, hooks Hooks) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if !r.cfg.Headless {
		// DefaultExecAllocatorOptions bakes in --headless; rebuild without it.
		opts = append([]chromedp.ExecAllocatorOption{
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
		}, chromedp.DefaultExecAllocatorOptions[3:]...)
	}
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var docOnce sync.Once
	chromedp.ListenTarget(browserCtx, func(ev any) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go r.handlePaused(browserCtx, e, hooks)
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument && e.Response.SecurityDetails != nil {
				docOnce.Do(func() {
					if hooks.OnSecurity != nil {
						hooks.OnSecurity(securityDetail(e.Response.SecurityDetails))
					}
				})
			}
		}
	})

	navCtx, navCancel := context.WithTimeout(browserCtx, r.cfg.NavTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, network.Enable(), fetch.Enable()); err != nil {
		return fmt.Errorf("browser launch failed: %w", err)
	}
	if hooks.OnLaunched != nil {
		hooks.OnLaunched()
	}

	if err := chromedp.Run(navCtx, chromedp.Navigate(targetURL)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if hooks.OnNavigated != nil {
		hooks.OnNavigated()
	}

	// Drain period: lazily-initialized trackers often fire well after the
	// load event.
	select {
	case <-time.After(r.cfg.DrainDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if hooks.OnCookies != nil {
		cookies, err := r.collectCookies(browserCtx)
		if err != nil {
			r.logger.Warn("cookie collection failed", zap.Error(err))
		} else {
			hooks.OnCookies(cookies)
		}
	}
	return nil
}

// handlePaused reports one intercepted request and then acknowledges it.
// The continue is deferred so a panicking hook can never strand a transfer.
func (r *Renderer) handlePaused(browserCtx context.Context, e *fetch.EventRequestPaused, hooks Hooks) {
	c := chromedp.FromContext(browserCtx)
	execCtx := cdp.WithExecutor(browserCtx, c.Target)
	defer func() {
		if err := fetch.ContinueRequest(e.RequestID).Do(execCtx); err != nil {
			r.logger.Debug("continue request failed",
				zap.String("url", e.Request.URL),
				zap.Error(err),
			)
		}
	}()

	if hooks.OnRequest == nil {
		return
	}
	hooks.OnRequest(types.RequestDescription{
		URL:          e.Request.URL,
		Method:       e.Request.Method,
		ResourceType: string(e.ResourceType),
		Body:         postData(e.Request),
	})
}

func (r *Renderer) collectCookies(browserCtx context.Context) ([]types.CookieRecord, error) {
	var records []types.CookieRecord
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		records = make([]types.CookieRecord, 0, len(cookies))
		for _, c := range cookies {
			rec := types.CookieRecord{
				Name:     c.Name,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
				SameSite: c.SameSite.String(),
			}
			if c.Expires > 0 {
				rec.Expires = time.Unix(int64(c.Expires), 0).UTC()
			}
			records = append(records, rec)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return records, nil
}

func postData(req *network.Request) string {
	if req == nil || !req.HasPostData {
		return ""
	}
	var body string
	for _, entry := range req.PostDataEntries {
		body += entry.Bytes
	}
	return body
}

func securityDetail(sd *network.SecurityDetails) types.SecurityDetail {
	detail := types.SecurityDetail{
		Protocol: sd.Protocol,
		Issuer:   sd.Issuer,
	}
	if sd.ValidTo != nil {
		detail.ValidTo = sd.ValidTo.Time().UTC()
	}
	return detail
}
