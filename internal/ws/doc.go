// Package ws implements the real-time observer channel.
//
// Observers connect over WebSocket, may join at any point during a scan, and
// are never authenticated.
//
// Message Types (Observer to Server):
//   - start-tracking: begin a scan of the given URL
//   - request-history: replay the current session's traffic events
//   - ping: keep-alive
//
// Message Types (Server to Observer):
//   - traffic-update: one annotated traffic event
//   - traffic-history: full ordered event backlog (reply to request-history)
//   - security-update: TLS details of the main document (once per scan)
//   - cookie-update: cookies collected at end of scan
//   - status: terminal scan status ("Scan Complete." or "Error: ...")
//
// Only traffic events are retained for replay; session-level broadcasts are
// fire-and-forget and late joiners never see past ones.
package ws
