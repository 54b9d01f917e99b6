package types

import "time"

// Severity grades how serious a violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Violation is a single triggered privacy/security rule. A TrafficEvent may
// carry several violations from independent rules; they are never deduped or
// prioritized against each other.
type Violation struct {
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
}

// RequestDescription is the read-only view of an outgoing browser request as
// reported by the rendering collaborator. The pipeline never mutates it.
type RequestDescription struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	ResourceType string `json:"resource_type"`
	Body         string `json:"body,omitempty"`
}

// GeoRecord is an approximate location of a destination host.
type GeoRecord struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

// DefaultGeo returns the sentinel location used when resolution is skipped or
// fails. Callers always receive a value, never a null.
func DefaultGeo() GeoRecord {
	return GeoRecord{Lat: 0, Lon: 0, Country: "Unknown"}
}

// TrafficEvent is one fully annotated intercepted request. It is immutable
// once constructed; ownership passes to the session history on append.
type TrafficEvent struct {
	URL          string      `json:"url"`
	Method       string      `json:"method"`
	ResourceType string      `json:"resource_type"`
	Domain       string      `json:"domain"`
	Violations   []Violation `json:"violations"`
	Geo          GeoRecord   `json:"geo"`
	IsTracker    bool        `json:"is_tracker"`
	Payload      string      `json:"payload,omitempty"`
}

// SecurityDetail carries the TLS metadata of the top-level document response.
// Emitted at most once per scan, independent of traffic events.
type SecurityDetail struct {
	Protocol string    `json:"protocol"`
	Issuer   string    `json:"issuer"`
	ValidTo  time.Time `json:"valid_to"`
}

// CookieRecord captures one browser cookie at the end of a scan.
type CookieRecord struct {
	Name     string    `json:"name"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"http_only"`
	SameSite string    `json:"same_site,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
}
