// Package backend provides the Farmstand personalization API server.

// This package contains the main application entry points under cmd/. The
// actual documentation is organized into subpackages:

// - internal/personalization: Score calculation, preference learning, queries
// - internal/models: Data models and database schemas
// - internal/season: Agricultural season type and calendar mapping
// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/database: Database connection and migrations
// - internal/cache: Redis response caching
// - internal/maintenance: Expired score sweeper
// - internal/middleware: HTTP middleware (request id, logging, identity)
// - internal/metrics: Prometheus instrumentation
// - internal/seed: Development data seeder

// See the individual package documentation for detailed reference.
package backend
