package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/analyses"
	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/iam"
	"compliance-analyzer/internal/llm"
	"compliance-analyzer/internal/llm/watsonx"
	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/server"
	"compliance-analyzer/internal/shared/telemetry"
	"compliance-analyzer/internal/web"
)

const sessionTTL = 24 * time.Hour

// App holds shared dependencies and the router built from them.
type App struct {
	Config config.Config
	Router *gin.Engine
	// ConfigErr is set when required settings are missing. Router then
	// serves only the configuration error.
	ConfigErr error

	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	AnalysesService  *analyses.Service
	DocumentsHandler *documents.Handler
	AnalysisHandler  *analyses.Handler
	WebHandler       *web.Handler
}

// Build wires services and handlers. Missing required configuration is not
// an error here: the returned App serves the configuration message instead.
func Build(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingConfigError
		if !errors.As(err, &missing) {
			return nil, err
		}
		telemetry.Error("bootstrap.config_missing", map[string]any{
			"missing": missing.Keys,
		})
		return &App{
			Config:    cfg,
			ConfigErr: err,
			Router:    server.NewUnconfiguredRouter(missing.UserMessage()),
		}, nil
	}

	policy, err := llm.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	inference, err := watsonx.NewClient(cfg.InferenceURL, cfg.ProjectID, watsonx.WithTimeout(cfg.InferenceTimeout))
	if err != nil {
		return nil, err
	}
	tokens := iam.NewExchanger(cfg.APIKey,
		iam.WithTokenURL(cfg.IAMURL),
		iam.WithTimeout(cfg.IAMTimeout),
	)

	app := &App{Config: cfg}
	buildServices(app, tokens, inference, policy)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.DocumentsHandler,
		AnalysisHandler: app.AnalysisHandler,
		WebHandler:      app.WebHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"models":        cfg.Models.Names(),
		"inference_url": cfg.InferenceURL,
		"policy_file":   cfg.PolicyFile,
	})
	return app, nil
}

func buildServices(app *App, tokens analyses.TokenExchanger, inference llm.Client, policy llm.Policy) {
	docRepo := documents.NewMemoryRepo(sessionTTL)
	docSvc := &documents.Service{
		Repo:           docRepo,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}
	analysisSvc := &analyses.Service{
		Docs:   docRepo,
		Tokens: tokens,
		LLM:    inference,
		Policy: policy,
	}

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.AnalysesService = analysisSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc, app.Config.Models)
	app.WebHandler = web.NewHandler(docSvc, analysisSvc, app.Config.Models)
}
