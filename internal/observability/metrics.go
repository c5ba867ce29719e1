// Package observability exposes prometheus metrics for the simulator.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xiaot623/workforce/internal/domain"
)

var (
	activitiesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workforce",
		Subsystem: "scheduler",
		Name:      "activities_total",
		Help:      "Total simulated activities fired, by kind and department.",
	}, []string{"kind", "department"})

	runningDeployments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workforce",
		Subsystem: "lifecycle",
		Name:      "running_deployments",
		Help:      "Number of deployments currently in RUNNING state.",
	})

	workersProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workforce",
		Subsystem: "identity",
		Name:      "workers_provisioned_total",
		Help:      "Total worker identities successfully provisioned.",
	})
)

func init() {
	prometheus.MustRegister(activitiesTotal, runningDeployments, workersProvisioned)
}

// ActivityMetrics is a notification subscriber that counts fired activities.
type ActivityMetrics struct{}

// ActivityPerformed records one fired activity.
func (ActivityMetrics) ActivityPerformed(a domain.Activity) {
	activitiesTotal.WithLabelValues(string(a.Kind), string(a.Department)).Inc()
}

// DeploymentStarted bumps the running-deployments gauge.
func DeploymentStarted() { runningDeployments.Inc() }

// DeploymentStopped lowers the running-deployments gauge.
func DeploymentStopped() { runningDeployments.Dec() }

// WorkerProvisioned counts one successfully created worker identity.
func WorkerProvisioned() { workersProvisioned.Inc() }
