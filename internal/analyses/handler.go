package analyses

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/server/middleware"
	"compliance-analyzer/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc    *Service
	Models config.Models
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, models config.Models) *Handler {
	return &Handler{Svc: svc, Models: models}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/models", h.listModels)
	rg.POST("/analyses", h.analyze)
}

type analyzeRequest struct {
	Model string `json:"model"`
}

func (h *Handler) listModels(c *gin.Context) {
	resp := make([]gin.H, 0, len(h.Models))
	for i, m := range h.Models {
		resp = append(resp, gin.H{"name": m.Name, "id": m.ID, "default": i == 0})
	}
	respond.OK(c, resp)
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	model := h.Models.Default()
	if name := strings.TrimSpace(req.Model); name != "" {
		m, ok := h.Models.Lookup(name)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown model", []map[string]string{
				{"field": "model", "issue": "not_in_catalog"},
			})
			return
		}
		model = m
	}

	outcome, err := h.Svc.Analyze(c.Request.Context(), middleware.SessionIDFromContext(c), model)
	c.Set("documentId", outcome.DocumentID)
	c.Set("stageTransition", outcome.Transition())
	if err != nil {
		writeAnalyzeError(c, err)
		return
	}

	respond.OK(c, gin.H{
		"documentId":    outcome.DocumentID,
		"modelId":       outcome.ModelID,
		"stage":         outcome.Stage,
		"generatedText": outcome.GeneratedText,
		"raw":           outcome.Raw,
	})
}

func writeAnalyzeError(c *gin.Context, err error) {
	var shapeErr *ShapeError
	switch {
	case errors.Is(err, ErrNoDocument):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "no_text", err.Error(), nil)
	case errors.As(err, &shapeErr):
		respond.Error(c, http.StatusBadGateway, "response_shape_mismatch", err.Error(), gin.H{"raw": json.RawMessage(shapeErr.Raw)})
	case FailureReason(err) == "auth":
		respond.Error(c, http.StatusBadGateway, "auth_failed", err.Error(), nil)
	case FailureReason(err) == "inference":
		respond.Error(c, http.StatusBadGateway, "inference_failed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze document", nil)
	}
}
