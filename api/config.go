// Package api provides the HTTP API server for creating, searching, fetching
// and voting on debate cards.
package api

import (
	"net/http"
	"time"

	"github.com/papercomputeco/cards/pkg/auth"
	"github.com/papercomputeco/cards/pkg/metrics"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ReadTimeout and WriteTimeout bound a single request. Zero means no limit.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Auth resolves card owners from bearer tokens. Nil disables auth.
	Auth *auth.Validator

	// Metrics is optional. When set, requests are counted and /metrics is served.
	Metrics *metrics.Collector

	// MCP is mounted on /mcp when set.
	MCP http.Handler
}
