package domain

import "fmt"

const (
	// MaxWorkers is the per-deployment worker ceiling.
	MaxWorkers = 300
	// DefaultWorkers is used when the request omits a worker count.
	DefaultWorkers = 25
)

// DeployRequest is the caller-supplied deployment configuration.
type DeployRequest struct {
	Workers            *int     `json:"workers,omitempty"`
	Department         string   `json:"department,omitempty"`
	DurationHours      *float64 `json:"duration_hours,omitempty"`
	EnableAIGeneration bool     `json:"enable_ai_generation,omitempty"`
	EmailDirective     string   `json:"email_directive,omitempty"`
}

// Validate checks the request and returns all violations found.
func (r DeployRequest) Validate() []string {
	var errs []string

	if r.Workers != nil {
		if *r.Workers < 1 {
			errs = append(errs, "'workers' must be a positive integer")
		}
		if *r.Workers > MaxWorkers {
			errs = append(errs, fmt.Sprintf("'workers' cannot exceed %d", MaxWorkers))
		}
	}

	if r.Department != "" && !Department(r.Department).Valid() {
		errs = append(errs, "'department' must be one of: operations, engineering, sales, hr, finance, executive")
	}

	if r.DurationHours != nil && *r.DurationHours < 0 {
		errs = append(errs, "'duration_hours' must not be negative")
	}

	return errs
}

// Normalize applies defaults and produces the effective configuration.
// Callers must Validate first.
func (r DeployRequest) Normalize() DeploymentConfig {
	cfg := DeploymentConfig{
		Workers:            DefaultWorkers,
		Department:         DepartmentOperations,
		DurationHours:      r.DurationHours,
		EnableAIGeneration: r.EnableAIGeneration,
		EmailDirective:     r.EmailDirective,
	}
	if r.Workers != nil {
		cfg.Workers = *r.Workers
	}
	if r.Department != "" {
		cfg.Department = Department(r.Department)
	}
	return cfg
}
