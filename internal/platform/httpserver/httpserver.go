package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for the query API. The
// write timeout is generous because /entities can serve a full run's
// snapshot in one response.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
