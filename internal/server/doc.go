// Package server exposes the planner over HTTP.
//
// Routes:
//
//	POST /chat              run the planner on a conversation
//	GET  /events/upcoming   agenda for today and the next days
//	GET  /healthz           liveness
//	GET  /readyz            readiness, fails while draining
//	GET  /healthz/detailed  uptime and configuration summary
//
// The router is chi with request ids, real-IP resolution, panic recovery,
// structured request logging, request metrics and a CORS allow-list.
// /chat is rate limited per client IP. Prometheus metrics are served by a
// separate MetricsServer on its own port.
//
// Credentials arrive in the request (body for /chat, query or bearer header
// for /events/upcoming) and are never logged in clear.
package server
