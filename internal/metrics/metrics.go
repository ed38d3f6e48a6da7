// Package metrics holds the Prometheus collectors for tool invocations and
// result-file reads. Metrics are written as a node-exporter textfile by the
// CLI; nothing here serves HTTP.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	registry = prometheus.NewRegistry()

	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "westrun",
			Subsystem: "tool",
			Name:      "invocations_total",
			Help:      "External WESTPA tool invocations by exit code.",
		},
		[]string{"tool", "exit_code"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "westrun",
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Wall time of external WESTPA tool invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"tool"},
	)
	toolProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "westrun",
			Subsystem: "tool",
			Name:      "probes_total",
			Help:      "Tool availability probes by result.",
		},
		[]string{"tool", "available"},
	)
	resultFileReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "westrun",
			Subsystem: "resultfile",
			Name:      "reads_total",
			Help:      "Scoped result-file reads, split by whether a locked-file copy was used.",
		},
		[]string{"file", "copied"},
	)
)

// Register adds every collector to the package registry. Safe to call often.
func Register() {
	registerOnce.Do(func() {
		registry.MustRegister(toolInvocations, toolDuration, toolProbes, resultFileReads)
	})
}

// Gatherer exposes the package registry.
func Gatherer() prometheus.Gatherer {
	Register()
	return registry
}

func RecordInvocation(tool string, exitCode int, duration time.Duration) {
	Register()
	toolInvocations.WithLabelValues(tool, strconv.Itoa(exitCode)).Inc()
	toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordProbe(tool string, available bool) {
	Register()
	toolProbes.WithLabelValues(tool, strconv.FormatBool(available)).Inc()
}

func RecordResultFileRead(file string, copied bool) {
	Register()
	resultFileReads.WithLabelValues(file, strconv.FormatBool(copied)).Inc()
}

// WriteTextfile writes the current metric values to path in the Prometheus
// text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Gatherer())
}
