package domain

import "time"

// DeploymentConfig is the normalized configuration a deployment runs with.
type DeploymentConfig struct {
	Workers            int        `json:"workers"`
	Department         Department `json:"department"`
	DurationHours      *float64   `json:"duration_hours,omitempty"`
	EnableAIGeneration bool       `json:"enable_ai_generation"`
	EmailDirective     string     `json:"email_directive,omitempty"`
}

// Duration returns the optional wall-clock bound for the deployment.
// A nil result means the deployment runs until stopped.
func (c DeploymentConfig) Duration() *time.Duration {
	if c.DurationHours == nil {
		return nil
	}
	d := time.Duration(*c.DurationHours * float64(time.Hour))
	return &d
}

// Deployment is the persisted record of one simulation instance.
type Deployment struct {
	DeploymentID   string           `json:"deployment_id"`
	Status         DeploymentStatus `json:"status"`
	Phase          string           `json:"phase"`
	Config         DeploymentConfig `json:"config"`
	WorkersCreated int              `json:"workers_created"`
	ActivityCount  int64            `json:"activity_count"`
	StartedAt      time.Time        `json:"started_at"`
	StoppedAt      *time.Time       `json:"stopped_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Activity records one fired simulated activity.
type Activity struct {
	ActivityID   string       `json:"activity_id"`
	DeploymentID string       `json:"deployment_id"`
	Kind         ActivityKind `json:"kind"`
	WorkerID     string       `json:"worker_id"`
	Department   Department   `json:"department"`
	Ts           time.Time    `json:"timestamp"`
	Subject      string       `json:"subject,omitempty"`
}

// CleanupReport summarizes resource deletion for a deployment.
type CleanupReport struct {
	DeploymentID     string   `json:"deployment_id"`
	ResourcesDeleted int      `json:"resources_deleted"`
	Details          []string `json:"details"`
	Errors           []string `json:"errors"`
}
