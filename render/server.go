package render

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/zeu5/dodge-rl/experiment"
)

// StatusServer serves the latest observation and summary over HTTP
type StatusServer struct {
	lock        *sync.Mutex
	observation *experiment.Observation
	summary     *experiment.Summary
	router      *gin.Engine
	logger      log.Logger
}

var _ experiment.Observer = &StatusServer{}

func NewStatusServer(logger log.Logger) *StatusServer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &StatusServer{
		lock:   new(sync.Mutex),
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", healthHandler)
	r.GET("/status", s.handleStatus)
	r.GET("/summary", s.handleSummary)
	s.router = r
	return s
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *StatusServer) Handler() http.Handler {
	return s.router
}

func (s *StatusServer) Observe(o experiment.Observation) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.observation = &o
}

func (s *StatusServer) SetSummary(summary *experiment.Summary) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.summary = summary
}

func (s *StatusServer) handleStatus(c *gin.Context) {
	s.lock.Lock()
	o := s.observation
	s.lock.Unlock()
	if o == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no observation yet"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *StatusServer) handleSummary(c *gin.Context) {
	s.lock.Lock()
	summary := s.summary
	s.lock.Unlock()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Run serves on addr until ctx is done
func (s *StatusServer) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	errCh := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "status server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
