package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"compliance-analyzer/internal/shared/telemetry"
)

const (
	DefaultInferenceURL = "https://us-south.ml.cloud.ibm.com/ml/v1/text/generation?version=2023-06-29"
	DefaultIAMURL       = "https://iam.cloud.ibm.com/identity/token"
	DefaultModels       = "8B Instruct=ibm/granite-3-8b-instruct"

	defaultMaxUploadBytes = 10 << 20 // 10MB
)

// Config holds application configuration. It is loaded once at startup and
// passed by value to the components that need it.
type Config struct {
	Port             string
	Env              string
	APIKey           string
	ProjectID        string
	InferenceURL     string
	IAMURL           string
	Models           Models
	PolicyFile       string
	MaxUploadBytes   int64
	IAMTimeout       time.Duration
	InferenceTimeout time.Duration

	// modelsErr holds the WATSONX_MODELS parse failure, reported by Validate.
	modelsErr error
}

// Load reads configuration from .env files and environment variables.
// Missing required values are reported by Validate, not here, so the caller
// decides how to surface them.
func Load() Config {
	v := viper.New()
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(v, ".env", "cmd/.env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("WATSONX_URL", DefaultInferenceURL)
	v.SetDefault("IBM_IAM_URL", DefaultIAMURL)
	v.SetDefault("WATSONX_MODELS", DefaultModels)
	v.SetDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	v.SetDefault("IAM_TIMEOUT", 30*time.Second)
	v.SetDefault("INFERENCE_TIMEOUT", 60*time.Second)

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	models, modelsErr := ParseModels(v.GetString("WATSONX_MODELS"))
	if modelsErr != nil {
		telemetry.Error("config.invalid_models", map[string]any{
			"error": modelsErr,
		})
	}
	if modelsErr != nil || len(models) == 0 {
		models, _ = ParseModels(DefaultModels)
	}
	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	return Config{
		Port:             strings.TrimSpace(v.GetString("PORT")),
		Env:              normalizeEnv(v.GetString("ENV")),
		APIKey:           strings.TrimSpace(v.GetString("IBM_CLOUD_API_KEY")),
		ProjectID:        strings.TrimSpace(v.GetString("WATSONX_PROJECT_ID")),
		InferenceURL:     strings.TrimSpace(v.GetString("WATSONX_URL")),
		IAMURL:           strings.TrimSpace(v.GetString("IBM_IAM_URL")),
		Models:           models,
		PolicyFile:       strings.TrimSpace(v.GetString("POLICY_FILE")),
		MaxUploadBytes:   maxUpload,
		IAMTimeout:       positiveDuration(v.GetDuration("IAM_TIMEOUT"), 30*time.Second),
		InferenceTimeout: positiveDuration(v.GetDuration("INFERENCE_TIMEOUT"), 60*time.Second),
		modelsErr:        modelsErr,
	}
}

// Validate reports the required settings that are absent.
func (c Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "IBM_CLOUD_API_KEY")
	}
	if c.ProjectID == "" {
		missing = append(missing, "WATSONX_PROJECT_ID")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}
	if c.modelsErr != nil {
		return fmt.Errorf("WATSONX_MODELS: %w", c.modelsErr)
	}
	if c.InferenceURL == "" {
		return fmt.Errorf("WATSONX_URL must not be empty")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("model catalog is empty")
	}
	return nil
}

// MissingConfigError lists required environment variables that were not set.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

// UserMessage is the text shown in place of the interface.
func (e *MissingConfigError) UserMessage() string {
	return "Missing required environment variables. Please check your .env file."
}

func loadEnvFiles(v *viper.Viper, paths ...string) {
	v.SetConfigType("env")
	for _, path := range paths {
		v.SetConfigFile(path)
		// Missing files are expected outside local development.
		_ = v.MergeInConfig()
	}
}

func positiveDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
