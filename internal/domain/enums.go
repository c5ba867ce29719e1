// Package domain defines the core domain models for the workforce simulator.
package domain

// DeploymentStatus represents the status of a deployment.
type DeploymentStatus string

const (
	DeploymentStatusPending    DeploymentStatus = "PENDING"
	DeploymentStatusRunning    DeploymentStatus = "RUNNING"
	DeploymentStatusStopped    DeploymentStatus = "STOPPED"
	DeploymentStatusCleaningUp DeploymentStatus = "CLEANING_UP"
	DeploymentStatusCompleted  DeploymentStatus = "COMPLETED"
	DeploymentStatusFailed     DeploymentStatus = "FAILED"
)

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s DeploymentStatus) IsTerminal() bool {
	return s == DeploymentStatusCompleted || s == DeploymentStatusFailed
}

// Department identifies a worker department with a distinct activity pattern.
type Department string

const (
	DepartmentOperations  Department = "operations"
	DepartmentEngineering Department = "engineering"
	DepartmentSales       Department = "sales"
	DepartmentHR          Department = "hr"
	DepartmentFinance     Department = "finance"
	DepartmentExecutive   Department = "executive"
)

// Departments lists all valid department values.
var Departments = []Department{
	DepartmentOperations,
	DepartmentEngineering,
	DepartmentSales,
	DepartmentHR,
	DepartmentFinance,
	DepartmentExecutive,
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, v := range Departments {
		if d == v {
			return true
		}
	}
	return false
}

// ActivityKind represents the type of a simulated worker activity.
type ActivityKind string

const (
	ActivityKindEmail        ActivityKind = "email"
	ActivityKindTeamsMessage ActivityKind = "teams_message"
	ActivityKindDocument     ActivityKind = "document"
)
