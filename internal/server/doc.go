// Package server provides HTTP server setup and initialization for NetWatch.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (CORS, rate limiting, recovery, metrics)
//   - Classifier rules and geolocation enricher construction
//   - Scan controller and WebSocket hub wiring
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build classifier, enricher, history, hub, renderer and controller
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, logger)
//	if err := srv.Run(cfg.Server.Addr()); err != nil {
//	    log.Fatal(err)
//	}
package server
