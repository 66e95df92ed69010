package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_runs_generated_total",
		Help: "Draft payroll runs generated, by entity.",
	}, []string{"entity"})

	EmployeeComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payroll_employee_computations_total",
		Help: "Per-employee computations produced across all runs.",
	})

	ExceptionsFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_exceptions_flagged_total",
		Help: "Payroll exceptions flagged, by code.",
	}, []string{"code"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payroll_run_generation_seconds",
		Help:    "Wall time of draft run generation.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// Handler exposes the default prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
