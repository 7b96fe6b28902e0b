// Package adminserver exposes the small liveness/metrics HTTP surface
// the process binds alongside its worker goroutines: /healthz and
// /metrics. It runs only when an address is configured.
package adminserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/blogvault/internal/logger"
)

// Server wraps a gin.Engine bound to one address.
type Server struct {
	addr string
	srv  *http.Server
	log  logger.Logger
}

// New builds a Server. It does not start listening until Start is
// called.
func New(addr string, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		addr: addr,
		log:  log,
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully. A blank addr disables the server entirely; Start returns
// nil immediately in that case.
func (s *Server) Start(ctx context.Context) error {
	if s.addr == "" {
		s.log.Debug("admin server disabled, no listen address configured")
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", logger.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
