// ABOUTME: HTTP handlers for items, labels, search, stats, and export
// ABOUTME: Mounted under /api
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
)

type sourceFields struct {
	SourceChannel   string `json:"source_channel"`
	SourceMessageID string `json:"source_message_id"`
}

func (f sourceFields) source() core.Source {
	return core.Source{Channel: f.SourceChannel, MessageID: f.SourceMessageID}
}

type createItemRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	sourceFields
}

type createURLRequest struct {
	URL string `json:"url"`
	sourceFields
}

type tagRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) registerItems(g *echo.Group) {
	g.POST("/items", s.createItem)
	g.POST("/items/url", s.createURL)
	g.GET("/items", s.listItems)
	g.GET("/items/:prefix", s.getItem)
	g.DELETE("/items/:prefix", s.deleteItem)
	g.POST("/items/:prefix/tags", s.tagItem)
	g.GET("/search", s.searchItems)
	g.GET("/categories", s.listCategories)
	g.GET("/tags", s.listTags)
	g.GET("/stats", s.itemStats)
	g.GET("/export", s.exportItems)
}

// queryLimit reads ?limit=, returning 0 when absent so services apply their default
func queryLimit(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	}
	return n, nil
}

func (s *Server) createItem(c echo.Context) error {
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	}

	item, err := s.items.CreateItem(c.Request().Context(), core.NewItem{
		Content:     req.Content,
		ContentType: models.ContentType(req.ContentType),
		Source:      req.source(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) createURL(c echo.Context) error {
	var req createURLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.URL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}

	item, err := s.items.CreateItemFromURL(c.Request().Context(), req.URL, req.source())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) listItems(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := strings.TrimSpace(c.QueryParam("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be an RFC 3339 timestamp")
		}
		items, err := s.items.ItemsSince(ctx, since)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	}

	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	items, err := s.items.ListItems(ctx, c.QueryParam("category"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) getItem(c echo.Context) error {
	item, err := s.items.GetItem(c.Request().Context(), c.Param("prefix"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) deleteItem(c echo.Context) error {
	deleted, err := s.items.DeleteItem(c.Request().Context(), c.Param("prefix"))
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) tagItem(c echo.Context) error {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := s.items.AddTags(c.Request().Context(), c.Param("prefix"), req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) searchItems(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	switch mode := strings.ToLower(c.QueryParam("mode")); mode {
	case "", "semantic":
		results, err := s.search.Semantic(ctx, query, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, results)
	case "keyword":
		items, err := s.search.Keyword(ctx, query, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be semantic or keyword")
	}
}

func (s *Server) listCategories(c echo.Context) error {
	cats, err := s.search.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

func (s *Server) listTags(c echo.Context) error {
	tags, err := s.search.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) itemStats(c echo.Context) error {
	stats, err := s.items.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) exportItems(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = string(core.FormatJSON)
	}
	exp, err := s.items.Export(c.Request().Context(), format)
	return sendExport(c, exp, err)
}

// sendExport writes an export as a download; an empty export is 204
func sendExport(c echo.Context, exp *core.Export, err error) error {
	if errors.Is(err, core.ErrNothingToExport) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exp.Filename+`"`)
	return c.Blob(http.StatusOK, exp.MIMEType, exp.Data)
}
