// Package metrics holds the Prometheus collectors of the service surfaces.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// surfaces
const (
	SurfaceAPI    = "api"
	SurfaceWorker = "worker"
	SurfaceBatch  = "batch"
)

// worker task outcomes
const (
	TaskCompleted = "completed"
	TaskFailed    = "failed"
	TaskSkipped   = "skipped"
	TaskRequeued  = "requeued"
)

var (
	Documents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ner_documents_total",
			Help: "Documents passed through the NER pipeline, by surface and outcome.",
		},
		[]string{"surface", "outcome"},
	)
	AnnotationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ner_annotation_duration_seconds",
			Help:    "Time spent annotating one document.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"surface"},
	)
	WorkerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ner_worker_tasks_total",
			Help: "RMQ task messages handled by the worker, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(Documents, AnnotationSeconds, WorkerTasks)
}

// ObserveAnnotation records one document annotated on surface since started.
func ObserveAnnotation(surface string, started time.Time, err error) {
	CountDocument(surface, err)
	AnnotationSeconds.WithLabelValues(surface).Observe(time.Since(started).Seconds())
}

func CountDocument(surface string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	Documents.WithLabelValues(surface, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
