// Package metrics exports pipeline stage events as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"finance_etl/internal/etl/pipeline"
)

// Config はメトリクスの設定です。PushgatewayURL が空ならpushしません。
type Config struct {
	Enabled        bool   `yaml:"enabled" default:"true"`
	Path           string `yaml:"path" default:"/metrics"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job" default:"finance_etl"`
}

// Reporter records pipeline stage events. It implements pipeline.Reporter.
type Reporter struct {
	reg         *prometheus.Registry
	stages      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rows        *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

var _ pipeline.Reporter = (*Reporter)(nil)

// New creates a Reporter with its own registry, which also carries the Go runtime and
// process collectors.
func New() *Reporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Reporter{
		reg: reg,
		stages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_stage_events_total",
				Help: "Pipeline stage events by outcome",
			},
			[]string{"source", "stage", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etl_stage_duration_seconds",
				Help:    "Duration of finished pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "stage"},
		),
		rows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etl_stage_rows",
				Help: "Rows in the buffer after the last completed stage",
			},
			[]string{"source", "stage"},
		),
		lastSuccess: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etl_last_success_timestamp_seconds",
				Help: "Unix time of the last successful load per source",
			},
			[]string{"source"},
		),
		now: time.Now,
	}
}

// Registry exposes the registry the metrics are registered on.
func (r *Reporter) Registry() *prometheus.Registry { return r.reg }

func (r *Reporter) Report(_ context.Context, ev pipeline.Event) {
	r.stages.WithLabelValues(ev.Source, ev.Stage, string(ev.Status)).Inc()
	if ev.Status == pipeline.StatusStarted {
		return
	}
	r.duration.WithLabelValues(ev.Source, ev.Stage).Observe(ev.Duration.Seconds())
	if ev.Status != pipeline.StatusCompleted {
		return
	}
	r.rows.WithLabelValues(ev.Source, ev.Stage).Set(float64(ev.Rows))
	if ev.Stage == pipeline.StageLoad {
		r.lastSuccess.WithLabelValues(ev.Source).Set(float64(r.now().Unix()))
	}
}

// Push sends the current values to a Pushgateway under job.
func (r *Reporter) Push(url, job string) error {
	if err := push.New(url, job).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// GinHandler adapts Handler to a gin route.
func (r *Reporter) GinHandler() gin.HandlerFunc {
	return gin.WrapH(r.Handler())
}
