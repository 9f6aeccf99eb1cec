package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/auth"
	"github.com/shoplite/shoplite/internal/database"
	"github.com/shoplite/shoplite/internal/uploads"
	"github.com/shoplite/shoplite/internal/web/events"
	"github.com/shoplite/shoplite/internal/web/handlers"
	"github.com/shoplite/shoplite/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	db         *database.DB
	port       int
	bind       string
	allowedNet *net.IPNet
	picsDir    string
	router     *chi.Mux
	sessions   *auth.Sessions
	verifier   *auth.Verifier
	pics       *uploads.Store
	hub        *events.Hub
	handlers   *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db *database.DB, port int, bind string, allowedNet *net.IPNet, pics *uploads.Store, picsDir string) *Server {
	s := &Server{
		db:         db,
		port:       port,
		bind:       bind,
		allowedNet: allowedNet,
		picsDir:    picsDir,
		router:     chi.NewRouter(),
		sessions:   auth.NewSessions(db),
		verifier:   auth.NewVerifier(db),
		pics:       pics,
		hub:        events.NewHub(),
	}

	s.setupRoutes()
	return s
}

// EventHub returns the catalog event hub
func (s *Server) EventHub() *events.Hub {
	return s.hub
}

// SetPicIndex sets the pics directory watcher and updates handlers
func (s *Server) SetPicIndex(w *uploads.Watcher) {
	if s.handlers != nil {
		s.handlers.SetPicIndex(w)
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware (applied to all routes, except timeout which is per-group)
	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	h := handlers.New(s.db, s.sessions, s.verifier, s.pics)
	h.SetEventHub(s.hub)
	s.handlers = h

	// Websocket endpoint - no timeout (long-lived connections)
	r.Group(func(r chi.Router) {
		r.Get("/api/events", h.Events)
	})

	// Uploaded pics
	r.Handle("/pics/*", http.StripPrefix("/pics/", http.FileServer(http.Dir(s.picsDir))))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Route("/api", func(r chi.Router) {
			r.Get("/token", h.Token)
			r.Get("/auth", h.AuthCustomer)
			r.Get("/auth/admin", h.AuthAdmin)
			r.Post("/registration", h.Register)

			r.Route("/item", func(r chi.Router) {
				r.Post("/banner", h.CreateBanner)
				r.Post("/banner/{alias}", h.UpdateBanner)
				r.Get("/banner/{alias}", h.GetBanner)
				r.Post("/product", h.CreateProduct)
				r.Post("/product/{id}", h.UpdateProduct)
				r.Get("/product/{key}", h.GetProduct)
			})

			r.Post("/upload/pic", h.UploadPic)
		})
	})
}

// Router returns the configured route table
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the web server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// WriteTimeout disabled (0) to allow long-lived websocket connections
		// Chi middleware timeout (60s) protects regular requests
		WriteTimeout: 0,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		// Stop the hub first to close all websocket clients gracefully
		s.hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
