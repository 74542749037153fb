package health

import "compliance-analyzer/internal/shared/config"

// Service reports readiness for the health endpoint.
type Service struct {
	models config.Models
}

// NewService constructs a health service for the configured model catalog.
func NewService(models config.Models) *Service {
	return &Service{models: models}
}

// Status is the health payload.
type Status struct {
	OK     bool     `json:"ok"`
	Models []string `json:"models"`
}

// Status reports that the service is configured and which models it offers.
func (s *Service) Status() Status {
	return Status{OK: len(s.models) > 0, Models: s.models.Names()}
}
