// Package geo resolves destination hostnames to approximate locations using
// an external ip-api style JSON service. Results are memoized per hostname
// for the life of the process; the cache is deliberately never reset between
// scans so repeated lookups across scans stay free.
package geo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/monitoring"
	"github.com/Yashwin-i/NetWatch/internal/shared/types"
)

// lookupResponse is the ip-api.com JSON shape.
type lookupResponse struct {
	Status  string  `json:"status"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Enricher resolves hostnames, caching successes process-wide. It never
// fails observably: every error path degrades to the default sentinel
// location and is not cached, so a later scan may retry the host.
type Enricher struct {
	client   *resty.Client
	endpoint string
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu    sync.RWMutex
	cache map[string]types.GeoRecord
}

// Option configures the enricher.
type Option func(*Enricher)

// WithClient replaces the HTTP client (used by tests).
func WithClient(c *resty.Client) Option {
	return func(e *Enricher) { e.client = c }
}

// WithMetrics records lookup outcomes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Enricher) { e.metrics = m }
}

// New creates an enricher talking to the given ip-api style endpoint.
func New(endpoint string, timeout time.Duration, logger *logging.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = logging.NewDefault()
	}

	// Resty front end over a retrying transport.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(timeout).
		SetHeader("User-Agent", "NetWatch/1.0")

	e := &Enricher{
		client:   client,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		logger:   logger,
		cache:    make(map[string]types.GeoRecord),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve returns an approximate location for hostname. Local and
// private-network hosts are skipped without a lookup.
func (e *Enricher) Resolve(ctx context.Context, hostname string) types.GeoRecord {
	if isPrivateHost(hostname) {
		e.record("skip")
		return types.DefaultGeo()
	}

	e.mu.RLock()
	record, ok := e.cache[hostname]
	e.mu.RUnlock()
	if ok {
		e.record("hit")
		return record
	}

	record, err := e.lookup(ctx, hostname)
	if err != nil {
		e.logger.Debug("geo lookup failed",
			zap.String("host", hostname),
			zap.Error(err),
		)
		e.record("failure")
		return types.DefaultGeo()
	}

	// Last-write-wins on concurrent inserts of the same host.
	e.mu.Lock()
	e.cache[hostname] = record
	e.mu.Unlock()
	e.record("miss")
	return record
}

func (e *Enricher) record(result string) {
	if e.metrics != nil {
		e.metrics.GeoLookups.WithLabelValues(result).Inc()
	}
}

// CacheSize returns the number of memoized hosts.
func (e *Enricher) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *Enricher) lookup(ctx context.Context, hostname string) (types.GeoRecord, error) {
	var body lookupResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(e.endpoint + "/" + hostname)
	if err != nil {
		return types.GeoRecord{}, fmt.Errorf("geo request: %w", err)
	}
	if resp.IsError() {
		return types.GeoRecord{}, fmt.Errorf("geo service returned %s", resp.Status())
	}
	if body.Status != "success" {
		return types.GeoRecord{}, fmt.Errorf("geo lookup for %q unresolved", hostname)
	}
	return types.GeoRecord{Lat: body.Lat, Lon: body.Lon, Country: body.Country}, nil
}

// isPrivateHost reports whether the hostname is local or on a private
// network. Resolving those would leak local topology for no value.
func isPrivateHost(hostname string) bool {
	if hostname == "" || hostname == "localhost" || strings.HasSuffix(hostname, ".local") {
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	return false
}
