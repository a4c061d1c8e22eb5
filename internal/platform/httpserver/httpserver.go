// Package httpserver builds the ledger's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative read timeouts. Handler-side
// deadlines come from the timeout middleware, so no WriteTimeout here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
