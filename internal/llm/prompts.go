package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/compliance_v1.txt
var complianceV1 string

// PromptData is the data available to prompt templates.
type PromptData struct {
	DocumentText string
}

// PromptTemplate renders the analysis prompt for a document.
type PromptTemplate struct {
	tmpl *template.Template
}

// DefaultPrompt returns the built-in compliance review prompt.
func DefaultPrompt() *PromptTemplate {
	p, err := ParsePrompt(complianceV1)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrompt compiles a prompt template. The template must reference
// {{.DocumentText}}.
func ParsePrompt(text string) (*PromptTemplate, error) {
	if !strings.Contains(text, ".DocumentText") {
		return nil, fmt.Errorf("prompt template does not reference .DocumentText")
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render substitutes the document text into the template.
func (p *PromptTemplate) Render(documentText string) (string, error) {
	var b strings.Builder
	if err := p.tmpl.Execute(&b, PromptData{DocumentText: documentText}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
