// Package middleware provides HTTP middleware for the archive API: access
// logging in W3C Extended Log Format and Prometheus request metrics.
package middleware
