// Package status exposes the latest per-frame pipeline state over a small
// HTTP surface.
package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jashmkapadia0/self-driving-kart/pipeline"
)

// Server consumes the pipeline status channel and serves the most recent
// entry. Zero frames seen yet reads as an empty status.
type Server struct {
	mu      sync.RWMutex
	last    pipeline.FrameStatus
	frames  uint64
	started time.Time
	srv     *http.Server
}

func NewServer() *Server {
	return &Server{started: time.Now()}
}

// Consume drains ch until it is closed, keeping only the newest entry.
func (s *Server) Consume(ch <-chan pipeline.FrameStatus) {
	for st := range ch {
		s.mu.Lock()
		s.last = st
		s.frames++
		s.mu.Unlock()
	}
}

// Run serves the status API until Shutdown.
func (s *Server) Run(port int) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/status", func(c *gin.Context) {
		s.mu.RLock()
		last := s.last
		frames := s.frames
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{
			"frameId":    last.ID,
			"latencyMs":  float64(last.Latency.Microseconds()) / 1000.0,
			"decision":   last.Decision.String(),
			"detections": last.Detections,
			"timestamp":  last.Timestamp,
			"frames":     frames,
			"uptimeSec":  int64(time.Since(s.started).Seconds()),
		})
	})
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
