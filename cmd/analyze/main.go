package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"compliance-analyzer/internal/analyses"
	"compliance-analyzer/internal/bootstrap"
	"compliance-analyzer/internal/shared/config"
)

func main() {
	cfg := config.Load()

	pdfPath := flag.String("pdf", "", "Path to the PDF document")
	modelName := flag.String("model", cfg.Models.Default().Name, "Model name from the catalog")
	outPath := flag.String("out", "", "Path to write the raw JSON response (optional)")
	flag.Parse()

	if strings.TrimSpace(*pdfPath) == "" {
		exitErr("pdf path is required")
	}
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingConfigError
		if errors.As(err, &missing) {
			exitErr(missing.UserMessage())
		}
		exitErr(err.Error())
	}
	model, ok := cfg.Models.Lookup(*modelName)
	if !ok {
		exitErr(fmt.Sprintf("unknown model %q; available: %s", *modelName, strings.Join(cfg.Models.Names(), ", ")))
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	file, err := os.Open(*pdfPath)
	if err != nil {
		exitErr(fmt.Sprintf("open pdf: %v", err))
	}
	defer file.Close()

	ctx := context.Background()
	sessionID := uuid.NewString()
	doc, err := app.DocumentsService.Upload(ctx, sessionID, filepath.Base(*pdfPath), file)
	if err != nil {
		exitErr(fmt.Sprintf("upload: %v", err))
	}
	if !doc.HasText() {
		exitErr(doc.ExtractError)
	}

	outcome, err := app.AnalysesService.Analyze(ctx, sessionID, model)
	if *outPath != "" && len(outcome.Raw) > 0 {
		if werr := os.WriteFile(*outPath, prettyJSON(outcome.Raw), 0o644); werr != nil {
			exitErr(fmt.Sprintf("write output: %v", werr))
		}
	}
	if err != nil {
		var shapeErr *analyses.ShapeError
		if errors.As(err, &shapeErr) {
			_, _ = fmt.Fprintln(os.Stderr, string(prettyJSON(shapeErr.Raw)))
		}
		exitErr(err.Error())
	}

	fmt.Println(outcome.GeneratedText)
}

func prettyJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
