// Package server exposes the gateway over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Desarso/deckchat"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(g *deckchat.Gateway) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORS(g.Config.AllowedOrigins))

	h := &Handler{Gateway: g}
	api := router.Group("/api")
	api.POST("/chat", h.Chat)
	api.GET("/chat/ws", h.ChatWebSocket)
	api.POST("/presentation_meta", h.PresentationMeta)
	api.GET("/health", h.Health)

	router.GET("/swagger/doc.json", h.SwaggerDoc)
	return router
}

// Server runs the router until its context is cancelled.
type Server struct {
	Gateway *deckchat.Gateway
	HTTP    *http.Server
}

func New(g *deckchat.Gateway) *Server {
	return &Server{
		Gateway: g,
		HTTP: &http.Server{
			Addr:              g.Config.Addr,
			Handler:           NewRouter(g),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.HTTP.Addr).Str("provider", s.Gateway.Model.Name()).Msg("server starting")
		if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.HTTP.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
