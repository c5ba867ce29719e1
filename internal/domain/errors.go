package domain

import (
	"errors"
	"strings"
)

// ErrDeploymentNotFound is returned for operations on an unknown deployment id.
var ErrDeploymentNotFound = errors.New("deployment not found")

// ErrMissingCredentials is returned when the directory credentials required
// for worker provisioning are not configured.
var ErrMissingCredentials = errors.New("missing directory credentials: KW_TENANT_ID, KW_APP_ID, KW_CLIENT_SECRET required")

// ErrPolicyBlocked is returned when the admission policy rejects a deployment.
var ErrPolicyBlocked = errors.New("deployment blocked by policy")

// ValidationError carries all configuration violations for a deploy request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid deployment config: " + strings.Join(e.Violations, "; ")
}
