// Package metrics exports Prometheus metrics for the solver, the
// validator, and the asynq job queue.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric this process records and exposes them
// over an HTTP handler in Prometheus text format.
type Registry struct {
	registry prometheus.Registerer
	mu       sync.RWMutex

	solveDuration     prometheus.HistogramVec
	solveObjective    prometheus.HistogramVec
	solveStatusTotal  prometheus.CounterVec
	solveAssignments  prometheus.HistogramVec
	violationsTotal   prometheus.CounterVec
	jobsEnqueuedTotal prometheus.CounterVec
	jobsFailedTotal   prometheus.CounterVec
	applyDuration     prometheus.HistogramVec
}

// NewRegistry registers every metric against the global Prometheus
// registerer. It panics if a metric fails to register.
func NewRegistry() *Registry {
	return NewRegistryWith(prometheus.DefaultRegisterer)
}

// NewRegistryWith registers every metric against a caller-supplied
// registerer, mainly for test isolation.
func NewRegistryWith(registerer prometheus.Registerer) *Registry {
	r := &Registry{registry: registerer}

	r.solveDuration = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "Wall-clock time of one solver run, by preset and outcome status",
		Buckets: prometheus.DefBuckets,
	}, []string{"preset", "status"})
	r.registry.MustRegister(&r.solveDuration)

	r.solveObjective = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_objective_value",
		Help:    "Objective value of feasible solver runs, by preset",
		Buckets: []float64{0, 100, 500, 1000, 5000, 10000, 50000},
	}, []string{"preset"})
	r.registry.MustRegister(&r.solveObjective)

	r.solveStatusTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_run_status_total",
		Help: "Count of solver runs by terminal status",
	}, []string{"preset", "status"})
	r.registry.MustRegister(&r.solveStatusTotal)

	r.solveAssignments = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_assignments_emitted",
		Help:    "Number of assignment drafts a feasible solve emitted",
		Buckets: []float64{0, 10, 50, 100, 300, 600, 1000},
	}, []string{"preset"})
	r.registry.MustRegister(&r.solveAssignments)

	r.violationsTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "validator_violations_total",
		Help: "Count of violations emitted by the validator, by hardness",
	}, []string{"hardness"})
	r.registry.MustRegister(&r.violationsTotal)

	r.jobsEnqueuedTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_enqueued_total",
		Help: "Count of jobs enqueued, by type",
	}, []string{"type"})
	r.registry.MustRegister(&r.jobsEnqueuedTotal)

	r.jobsFailedTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_failed_total",
		Help: "Count of job handler failures, by type",
	}, []string{"type"})
	r.registry.MustRegister(&r.jobsFailedTotal)

	r.applyDuration = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "applier_apply_duration_seconds",
		Help:    "Wall-clock time of one result-applier transaction",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	r.registry.MustRegister(&r.applyDuration)

	return r
}

// RecordSolve records one completed solver run.
func (r *Registry) RecordSolve(preset, status string, durationSecs float64, objective *float64, numAssignments int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.solveDuration.WithLabelValues(preset, status).Observe(durationSecs)
	r.solveStatusTotal.WithLabelValues(preset, status).Inc()
	r.solveAssignments.WithLabelValues(preset).Observe(float64(numAssignments))
	if objective != nil {
		r.solveObjective.WithLabelValues(preset).Observe(*objective)
	}
}

// RecordViolations increments the violation counters for one validator run.
func (r *Registry) RecordViolations(hardCount, softCount int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.violationsTotal.WithLabelValues("hard").Add(float64(hardCount))
	r.violationsTotal.WithLabelValues("soft").Add(float64(softCount))
}

// RecordJobEnqueued increments the enqueued-job counter for jobType.
func (r *Registry) RecordJobEnqueued(jobType string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.jobsEnqueuedTotal.WithLabelValues(jobType).Inc()
}

// RecordJobFailed increments the failed-job counter for jobType.
func (r *Registry) RecordJobFailed(jobType string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.jobsFailedTotal.WithLabelValues(jobType).Inc()
}

// RecordApply records the duration of one applier transaction.
func (r *Registry) RecordApply(outcome string, durationSecs float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.applyDuration.WithLabelValues(outcome).Observe(durationSecs)
}

// Handler returns an http.Handler serving this registry in
// Prometheus text format, served by cmd/worker's metrics listener.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry.(prometheus.Gatherer), promhttp.HandlerOpts{})
}
