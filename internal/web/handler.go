package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/analyses"
	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/server/middleware"
	"compliance-analyzer/internal/shared/telemetry"
)

const (
	flashCookie = "flash"

	// multipart framing on top of the file itself
	formOverheadBytes = 64 << 10
)

// Handler serves the single-page interface.
type Handler struct {
	Docs     *documents.Service
	Analyses *analyses.Service
	Models   config.Models
}

// NewHandler constructs a Handler.
func NewHandler(docs *documents.Service, an *analyses.Service, models config.Models) *Handler {
	return &Handler{Docs: docs, Analyses: an, Models: models}
}

// RegisterRoutes attaches the page routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/upload", h.upload)
	r.POST("/analyze", h.analyze)
	r.POST("/reset", h.reset)
}

func (h *Handler) index(c *gin.Context) {
	data := h.basePage(c, c.Query("model"))
	data.Flash = takeFlash(c)
	renderPage(c, http.StatusOK, data)
}

func (h *Handler) upload(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	limit := h.Docs.MaxUploadBytes + formOverheadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || c.Request.ContentLength > limit {
			h.redirectWithFlash(c, tooLargeMessage(h.Docs.MaxUploadBytes))
			return
		}
		h.redirectWithFlash(c, "Choose a PDF document to upload.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.redirectWithFlash(c, "Unable to read the uploaded file.")
		return
	}
	defer file.Close()

	doc, err := h.Docs.Upload(c.Request.Context(), sessionID, fileHeader.Filename, file)
	switch {
	case err == nil:
		c.Set("documentId", doc.ID)
		c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, documents.ErrNotPDF):
		h.redirectWithFlash(c, "Only PDF documents are supported.")
	case errors.Is(err, documents.ErrTooLarge):
		h.redirectWithFlash(c, tooLargeMessage(h.Docs.MaxUploadBytes))
	default:
		telemetry.Error("web.upload_failed", map[string]any{
			"session_id": sessionID,
			"error":      err,
		})
		h.redirectWithFlash(c, "The document could not be uploaded. Please try again.")
	}
}

func (h *Handler) analyze(c *gin.Context) {
	name := c.PostForm("model")
	model, ok := h.Models.Lookup(name)
	if !ok {
		model = h.Models.Default()
	}

	outcome, err := h.Analyses.Analyze(c.Request.Context(), middleware.SessionIDFromContext(c), model)
	c.Set("documentId", outcome.DocumentID)
	c.Set("stageTransition", outcome.Transition())

	data := h.basePage(c, model.Name)
	if err != nil {
		data.Error = err.Error()
		var shapeErr *analyses.ShapeError
		if errors.As(err, &shapeErr) {
			data.ErrorRaw = indentJSON(shapeErr.Raw)
		}
		renderPage(c, http.StatusOK, data)
		return
	}

	html, err := renderMarkdown(outcome.GeneratedText)
	if err != nil {
		data.Error = fmt.Sprintf("Error processing response: %v", err)
		data.ErrorRaw = indentJSON(outcome.Raw)
		renderPage(c, http.StatusOK, data)
		return
	}
	data.Analysis = &analysisView{HTML: html, RawJSON: indentJSON(outcome.Raw)}
	renderPage(c, http.StatusOK, data)
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.Docs.Discard(c.Request.Context(), middleware.SessionIDFromContext(c)); err != nil {
		h.redirectWithFlash(c, "The document could not be cleared. Please try again.")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// basePage fills the sidebar and the session's current document.
func (h *Handler) basePage(c *gin.Context, selectedModel string) pageData {
	var data pageData
	data.selectModels(h.Models, selectedModel)

	doc, err := h.Docs.Current(c.Request.Context(), middleware.SessionIDFromContext(c))
	switch {
	case err == nil:
		data.setDocument(doc)
		c.Set("documentId", doc.ID)
	case errors.Is(err, documents.ErrNotFound):
	default:
		telemetry.Error("web.document_lookup_failed", map[string]any{
			"session_id": middleware.SessionIDFromContext(c),
			"error":      err,
		})
	}
	return data
}

func (h *Handler) redirectWithFlash(c *gin.Context, msg string) {
	c.SetCookie(flashCookie, msg, 60, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func takeFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	return msg
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("The document exceeds the %d MB upload limit.", limit>>20)
}
