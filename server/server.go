// Package server exposes a read-only HTTP status endpoint for a running
// discussion service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/session"
	"github.com/hupe1980/agentteam/transcript"
)

// SessionLister reports the live sessions.
type SessionLister interface {
	Sessions() []session.Info
}

// Options holds configuration for the status server.
type Options struct {
	Addr string
	// Transcripts enables GET /sessions/:id/transcripts when set.
	Transcripts transcript.Store
	Logger      logging.Logger
	// ShutdownTimeout bounds graceful shutdown after ctx is cancelled.
	ShutdownTimeout time.Duration
}

// DefaultAddr is used when Options.Addr is empty.
const DefaultAddr = ":8080"

// Start runs the status server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, sessions SessionLister, optFns ...func(o *Options)) error {
	if sessions == nil {
		return fmt.Errorf("server: session lister is required")
	}

	opts := Options{
		Addr:            DefaultAddr,
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.WithComponent(opts.Logger, "status")

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(sessions, opts.Transcripts, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	logger.Info("status server listening", "addr", opts.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine serving /healthz and /sessions. A nil
// transcript store leaves the transcript route unregistered.
func NewRouter(sessions SessionLister, transcripts transcript.Store, now func() time.Time) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	started := now()

	router.GET("/healthz", handleHealth(sessions, started, now))
	router.GET("/sessions", handleSessions(sessions))
	router.GET("/sessions/:id", handleSession(sessions))
	if transcripts != nil {
		router.GET("/sessions/:id/transcripts", handleTranscripts(transcripts))
	}

	return router
}

func handleHealth(sessions SessionLister, started time.Time, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": len(sessions.Sessions()),
			"uptime":   now().Sub(started).Round(time.Second).String(),
		})
	}
}

func handleSessions(sessions SessionLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		list := sessions.Sessions()
		if list == nil {
			list = []session.Info{}
		}
		c.JSON(http.StatusOK, gin.H{"sessions": list})
	}
}

func handleSession(sessions SessionLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		for _, info := range sessions.Sessions() {
			if info.ID == id {
				c.JSON(http.StatusOK, info)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
}

func handleTranscripts(store transcript.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := store.List(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transcripts": list})
	}
}
