package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

type createTaskReq struct {
	Text  string     `json:"text"`
	Type  string     `json:"type"`
	DueAt *time.Time `json:"dueAt"`
}

type reactivateReq struct {
	DueAt *time.Time `json:"dueAt"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), service.TaskInput{
		Text:  req.Text,
		Type:  model.TaskType(req.Type),
		DueAt: req.DueAt,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": task})
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

// listTasks dispatches on the query parameters: ?q= searches the text,
// ?type=&state=active narrows to active tasks of a type, otherwise the
// state or type filter applies alone. No filter means active tasks.
func (s *Server) listTasks(c *gin.Context) {
	ctx := c.Request.Context()
	state := c.Query("state")
	typ := c.Query("type")
	keyword := c.Query("q")

	var (
		tasks []model.Task
		err   error
	)
	switch {
	case keyword != "":
		tasks, err = s.tasks.Search(ctx, keyword)
	case typ != "" && state == string(model.StateActive):
		tasks, err = s.tasks.ListActiveByType(ctx, model.TaskType(typ))
	case typ != "" && state == "":
		tasks, err = s.tasks.ListByType(ctx, model.TaskType(typ))
	case typ != "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "type can only be combined with state=active"})
		return
	case state != "":
		tasks, err = s.tasks.ListByState(ctx, model.TaskState(state))
	default:
		tasks, err = s.tasks.ListByState(ctx, model.StateActive)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) listOverdue(c *gin.Context) {
	tasks, err := s.tasks.ListOverdue(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) listDailyToday(c *gin.Context) {
	tasks, err := s.tasks.ListDailyActiveToday(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) transition(op func(context.Context, string) (*model.Task, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := op(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": task})
	}
}

func (s *Server) reactivateTask(c *gin.Context) {
	var req reactivateReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	task, err := s.tasks.Reactivate(c.Request.Context(), c.Param("id"), req.DueAt)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": task})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var (
		vErr *model.ValidationError
		nErr *model.NotFoundError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &nErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nErr.Error()})
	default:
		s.log.WithError(err).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
