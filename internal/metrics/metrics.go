// Package metrics records scan counters on a private prometheus registry and
// writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/phobologic/declscan/internal/model"
)

// File status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusCached = "cached"
)

// Recorder holds the metric vectors for one scan. A nil *Recorder records
// nothing.
type Recorder struct {
	reg *prometheus.Registry

	files        *prometheus.CounterVec
	declarations *prometheus.CounterVec
	parse        *prometheus.HistogramVec
}

// New returns a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "declscan_files_total",
			Help: "Files processed, by language and outcome.",
		}, []string{"language", "status"}),
		declarations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "declscan_declarations_total",
			Help: "Declarations reported, by kind.",
		}, []string{"kind"}),
		parse: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "declscan_parse_duration_seconds",
			Help:    "Time spent parsing a source file.",
			Buckets: prometheus.DefBuckets,
		}, []string{"language"}),
	}
}

// ObserveParse records how long one front-end call took.
func (r *Recorder) ObserveParse(language string, d time.Duration) {
	if r == nil {
		return
	}
	r.parse.WithLabelValues(language).Observe(d.Seconds())
}

// File records the outcome of one file.
func (r *Recorder) File(report model.FileReport, cached bool) {
	if r == nil {
		return
	}
	status := StatusOK
	switch {
	case report.Failed():
		status = StatusFailed
	case cached:
		status = StatusCached
	}
	r.files.WithLabelValues(report.Language, status).Inc()

	for _, fn := range report.Functions {
		r.declarations.WithLabelValues(string(fn.Kind)).Inc()
	}
	for _, cls := range report.Classes {
		for _, m := range cls.Methods {
			r.declarations.WithLabelValues(string(m.Kind)).Inc()
		}
	}
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
