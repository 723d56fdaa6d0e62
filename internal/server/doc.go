// Package server provides the HTTP server for the contact book dashboard and API.
//
// This package handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML dashboard at "/"
//   - REST API: huma operations under "/api/contacts" for listing, searching,
//     adding and deleting contacts, documented at "/docs"
//   - Server-Sent Events: Real-time change events at "/api/events"
//   - Metrics: Prometheus text exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the contactbook library should not need to interact with this
// package directly. The server is started by [contactbook.Book.Serve].
package server
