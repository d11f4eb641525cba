// ABOUTME: HTTP handlers for photo analysis and declutter tasks
// ABOUTME: PATCH accepts either an explicit status or a reaction toggle
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
)

type analyzeRequest struct {
	ImageURL string `json:"image_url"`
	sourceFields
}

type updateTaskRequest struct {
	Status      string `json:"status"`
	ActionTaken string `json:"action_taken"`
	Emoji       string `json:"emoji"`
	Added       *bool  `json:"added"`
}

func (s *Server) registerTasks(g *echo.Group) {
	g.GET("", s.listTasks)
	g.GET("/stats", s.taskStats)
	g.GET("/summary", s.taskSummary)
	g.GET("/export", s.exportTasks)
	g.GET("/:prefix", s.getTask)
	g.PATCH("/:prefix", s.updateTask)
	g.DELETE("/:prefix", s.deleteTask)
	// analysis creates tasks, so it sits beside them
	s.echo.POST("/api/declutter", s.analyze)
}

func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "image_url required")
	}

	tasks, err := s.declutter.Analyze(c.Request().Context(), req.ImageURL, req.source())
	if errors.Is(err, core.ErrNoItemsIdentified) {
		return c.JSON(http.StatusOK, []*models.DeclutterTask{})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tasks)
}

func (s *Server) listTasks(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	tasks, err := s.declutter.List(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	task, err := s.declutter.Get(c.Request().Context(), c.Param("prefix"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	prefix := c.Param("prefix")

	if req.Emoji != "" {
		added := req.Added == nil || *req.Added
		task, err := s.declutter.ApplyReaction(ctx, prefix, req.Emoji, added)
		if err != nil {
			return err
		}
		if task == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "emoji must be "+core.ReactionDone+" or "+core.ReactionDismiss)
		}
		return c.JSON(http.StatusOK, task)
	}

	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status or emoji required")
	}
	task, err := s.declutter.UpdateStatus(ctx, prefix, req.Status, req.ActionTaken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	deleted, err := s.declutter.Delete(c.Request().Context(), c.Param("prefix"))
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) taskStats(c echo.Context) error {
	stats, err := s.declutter.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) taskSummary(c echo.Context) error {
	sum, err := s.declutter.Summary(c.Request().Context(), c.QueryParam("period"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) exportTasks(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = string(core.FormatJSON)
	}
	exp, err := s.declutter.Export(c.Request().Context(), format)
	return sendExport(c, exp, err)
}
