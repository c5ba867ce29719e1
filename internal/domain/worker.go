package domain

import "fmt"

// ActivityPattern holds the per-department activity rates and work-hour
// window. Hours are UTC.
type ActivityPattern struct {
	EmailPerHour         int `json:"email_per_hour"`
	TeamsMessagesPerHour int `json:"teams_messages_per_hour"`
	DocumentsPerDay      int `json:"documents_per_day"`
	MeetingsPerDay       int `json:"meetings_per_day"`
	VariancePercent      int `json:"activity_variance_percent"`
	WorkStartHour        int `json:"work_start_hour"`
	WorkEndHour          int `json:"work_end_hour"`
}

// DefaultPattern is used for any department without an explicit entry.
var DefaultPattern = ActivityPattern{
	EmailPerHour:         5,
	TeamsMessagesPerHour: 10,
	DocumentsPerDay:      3,
	MeetingsPerDay:       4,
	VariancePercent:      30,
	WorkStartHour:        8,
	WorkEndHour:          17,
}

var departmentPatterns = map[Department]ActivityPattern{
	DepartmentOperations:  pattern(6, 8, 4, 4),
	DepartmentEngineering: pattern(4, 15, 6, 3),
	DepartmentSales:       pattern(12, 10, 3, 8),
	DepartmentHR:          pattern(10, 8, 5, 5),
	DepartmentFinance:     pattern(6, 5, 8, 4),
	DepartmentExecutive:   pattern(8, 5, 2, 10),
}

func pattern(email, teams, docs, meetings int) ActivityPattern {
	p := DefaultPattern
	p.EmailPerHour = email
	p.TeamsMessagesPerHour = teams
	p.DocumentsPerDay = docs
	p.MeetingsPerDay = meetings
	return p
}

// PatternFor returns the activity pattern for a department. It is total:
// unmapped departments fall back to DefaultPattern.
func PatternFor(d Department) ActivityPattern {
	if p, ok := departmentPatterns[d]; ok {
		return p
	}
	return DefaultPattern
}

// InWorkHours reports whether the given UTC hour falls inside the
// pattern's [WorkStartHour, WorkEndHour) window.
func (p ActivityPattern) InWorkHours(hour int) bool {
	return p.WorkStartHour <= hour && hour < p.WorkEndHour
}

// WorkerConfig describes a worker to be provisioned.
type WorkerConfig struct {
	Department        Department `json:"department"`
	WorkerNumber      int        `json:"worker_number"`
	DeploymentID      string     `json:"deployment_id"`
	DisplayNamePrefix string     `json:"display_name_prefix"`
	Domain            string     `json:"domain,omitempty"`
}

// WorkerID derives the deterministic worker identifier. Re-deriving from
// the same deployment id and ordinal always yields the same id, so no
// separate registry is needed to reconstruct identities after a restart.
func (c WorkerConfig) WorkerID() string {
	return fmt.Sprintf("worker-%s-%d", c.DeploymentID, c.WorkerNumber)
}

// DisplayName derives the deterministic display name.
func (c WorkerConfig) DisplayName() string {
	prefix := c.DisplayNamePrefix
	if prefix == "" {
		prefix = "Workforce"
	}
	return fmt.Sprintf("%s Worker %d", prefix, c.WorkerNumber)
}

// WorkerIdentity is a provisioned worker within a deployment. Immutable
// after creation.
type WorkerIdentity struct {
	WorkerID          string          `json:"worker_id"`
	DisplayName       string          `json:"display_name"`
	UserPrincipalName string          `json:"user_principal_name"`
	Department        Department      `json:"department"`
	ObjectID          string          `json:"object_id"`
	DeploymentID      string          `json:"deployment_id"`
	Pattern           ActivityPattern `json:"activity_pattern"`
}

// NewWorkerIdentity binds a directory identity to its department pattern.
func NewWorkerIdentity(cfg WorkerConfig, objectID, upn string) WorkerIdentity {
	return WorkerIdentity{
		WorkerID:          cfg.WorkerID(),
		DisplayName:       cfg.DisplayName(),
		UserPrincipalName: upn,
		Department:        cfg.Department,
		ObjectID:          objectID,
		DeploymentID:      cfg.DeploymentID,
		Pattern:           PatternFor(cfg.Department),
	}
}
