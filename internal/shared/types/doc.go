// Package types defines the core data model shared across the scan pipeline:
// intercepted request descriptions, annotated traffic events, violations,
// geolocation records, and the session-level artifacts (certificate details,
// cookies) captured once per scan.
package types
