package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collecta",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Number of scheduler job invocations.",
	}, []string{"job"})

	jobErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collecta",
		Subsystem: "scheduler",
		Name:      "job_errors_total",
		Help:      "Number of scheduler job invocations that finished with errors.",
	}, []string{"job"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collecta",
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Scheduler job wall time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	stepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collecta",
		Subsystem: "engine",
		Name:      "steps_executed_total",
		Help:      "Scheduled step execution attempts by terminal result.",
	}, []string{"result"})

	sendAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collecta",
		Subsystem: "engine",
		Name:      "send_attempts_total",
		Help:      "Outbound channel sender calls by channel and outcome.",
	}, []string{"channel", "outcome"})
)

func IncJobRun(job string) {
	jobRuns.WithLabelValues(job).Inc()
}

func IncJobError(job string) {
	jobErrors.WithLabelValues(job).Inc()
}

func ObserveJobDuration(job string, d time.Duration) {
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func IncStepExecuted(result string) {
	stepsExecuted.WithLabelValues(result).Inc()
}

func IncSendAttempt(channel, outcome string) {
	sendAttempts.WithLabelValues(channel, outcome).Inc()
}
