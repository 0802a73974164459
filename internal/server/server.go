package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

type Server struct {
	httpServer *http.Server
}

// New builds the HTTP server: routes, then the middleware chain
// requestID -> logging -> mux.
func New(app *App) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /files", app.handleUpload)
	mux.HandleFunc("GET /files/{id}", app.handleDownload)
	mux.HandleFunc("GET /files/{id}/info", app.handleInfo)
	mux.HandleFunc("GET /healthz", app.handleLive)
	mux.HandleFunc("GET /readyz", app.handleReady)

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              app.settings.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
