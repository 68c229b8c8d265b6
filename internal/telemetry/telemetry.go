// Package telemetry holds the process-wide logger, metrics and tracer setup.
package telemetry

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for all notifyguard spans.
const TracerName = "github.com/phobologic/notifyguard"

// Registry collects notifyguard metrics. It is private so that embedding
// programs do not see our series on the default registry.
var Registry = prometheus.NewRegistry()

var (
	// filesParsed counts parse attempts.
	//
	// Labels:
	//   - status: "ok" or "error"
	filesParsed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyguard",
			Name:      "files_parsed_total",
			Help:      "Total C# files parsed.",
		},
		[]string{"status"},
	)

	parseDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "notifyguard",
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing and lowering one file.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// findingsTotal counts reported diagnostics.
	//
	// Labels:
	//   - rule: the diagnostic id, e.g. "INPC005"
	findingsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyguard",
			Name:      "findings_total",
			Help:      "Total findings reported, by rule.",
		},
		[]string{"rule"},
	)

	typesAnalyzed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "notifyguard",
			Name:      "types_analyzed_total",
			Help:      "Total type declarations analyzed.",
		},
	)
)

// RecordParse records one parse attempt.
func RecordParse(d time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	filesParsed.WithLabelValues(status).Inc()
	parseDuration.Observe(d.Seconds())
}

// RecordFinding records one reported diagnostic.
func RecordFinding(rule string) {
	findingsTotal.WithLabelValues(rule).Inc()
}

// RecordTypes records n analyzed type declarations.
func RecordTypes(n int) {
	typesAnalyzed.Add(float64(n))
}

// WriteMetrics writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

// Tracer returns the notifyguard tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NewRunID returns a fresh identifier attached to every log line of a run.
func NewRunID() string {
	return uuid.NewString()
}

// NewLogger builds a text logger writing to w. Verbose enables debug output.
func NewLogger(w io.Writer, verbose bool, runID string) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	if runID != "" {
		logger = logger.With(slog.String("run_id", runID))
	}
	return logger
}
