package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/service"
)

// Server exposes the engine's operations over HTTP. It is a thin consumer:
// lifecycle rules live in the service, the server only translates requests
// and typed errors.
type Server struct {
	tasks *service.TaskService
	log   *logrus.Logger
	http  *http.Server
}

func New(addr string, tasks *service.TaskService, log *logrus.Logger) *Server {
	s := &Server{tasks: tasks, log: log}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), cors.Default())
	s.routes(router)

	s.http = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/tasks", s.createTask)
	api.GET("/tasks", s.listTasks)
	api.GET("/tasks/overdue", s.listOverdue)
	api.GET("/tasks/today", s.listDailyToday)
	api.GET("/tasks/:id", s.getTask)
	api.POST("/tasks/:id/activate", s.transition(s.tasks.Activate))
	api.POST("/tasks/:id/complete", s.transition(s.tasks.Complete))
	api.POST("/tasks/:id/fail", s.transition(s.tasks.Fail))
	api.POST("/tasks/:id/reactivate", s.reactivateTask)
}

func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}
