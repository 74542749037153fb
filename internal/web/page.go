package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/shared/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

const pageName = "index.html.tmpl"

type modelOption struct {
	Name     string
	Selected bool
}

type documentView struct {
	FileName     string
	Text         string
	ExtractError string
}

type analysisView struct {
	HTML    template.HTML
	RawJSON string
}

type pageData struct {
	ConfigError string
	Models      []modelOption
	Flash       string
	Document    *documentView
	Analysis    *analysisView
	Error       string
	// ErrorRaw is the response payload shown under an error that came
	// from an uninterpretable response.
	ErrorRaw string
}

func (p *pageData) selectModels(models config.Models, selected string) {
	if _, ok := models.Lookup(selected); !ok {
		selected = models.Default().Name
	}
	p.Models = make([]modelOption, 0, len(models))
	for _, m := range models {
		p.Models = append(p.Models, modelOption{Name: m.Name, Selected: m.Name == selected})
	}
}

func (p *pageData) setDocument(doc documents.Document) {
	p.Document = &documentView{
		FileName:     doc.FileName,
		Text:         doc.Text,
		ExtractError: doc.ExtractError,
	}
}

func renderPage(c *gin.Context, status int, data pageData) {
	c.Render(status, render.HTML{Template: pageTemplate, Name: pageName, Data: data})
}

// indentJSON pretty-prints raw for display, falling back to the raw text.
func indentJSON(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
