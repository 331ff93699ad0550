// Package server exposes the moderation pipeline over HTTP. It is a thin
// facade: request/response mapping only, no moderation logic.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/engine"
	"github.com/sievemod/sieve/internal/model"
)

// Server wires the moderation engine into a gin router.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates the HTTP server facade.
func New(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: eng, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/moderate/text", s.moderateText)
		v1.POST("/moderate/image", s.moderateImage)
		v1.GET("/moderate/requests/:id", s.getRequest)
		v1.GET("/analytics/summary", s.analyticsSummary)
	}
	return router
}

type textRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Content string `json:"content" binding:"required"`
}

type imageRequest struct {
	Email    string `json:"email" binding:"required,email"`
	ImageURL string `json:"image_url" binding:"required,url"`
}

func (s *Server) moderateText(c *gin.Context) {
	var payload textRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.submit(c, payload.Email, model.KindText, payload.Content)
}

func (s *Server) moderateImage(c *gin.Context) {
	var payload imageRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.submit(c, payload.Email, model.KindImage, payload.ImageURL)
}

func (s *Server) submit(c *gin.Context, submitter string, kind model.ContentKind, content string) {
	submission, err := s.engine.Submit(c.Request.Context(), submitter, kind, content)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (s *Server) getRequest(c *gin.Context) {
	request, result, logs, err := s.engine.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	body := gin.H{
		"request_id":   request.ID,
		"submitter":    request.Submitter,
		"kind":         request.Kind,
		"content_hash": request.ContentHash,
		"status":       request.Status,
		"created_at":   request.CreatedAt,
	}
	if request.FailReason != "" {
		body["fail_reason"] = request.FailReason
	}
	if result != nil {
		body["classification"] = result.Label
		body["confidence"] = result.Confidence
		body["reasoning"] = result.Reasoning
		body["provider_used"] = result.Provider
	}
	if len(logs) > 0 {
		body["notifications"] = logs
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) analyticsSummary(c *gin.Context) {
	user := c.Query("user")
	summary, err := s.engine.Analytics(c.Request.Context(), user)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":           summary.Submitter,
		"total_requests": summary.TotalRequests,
		"breakdown":      summary.Breakdown,
	})
}

// renderError maps pipeline errors to HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrClassificationUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidSubmitter),
		errors.Is(err, common.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("unhandled request error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
