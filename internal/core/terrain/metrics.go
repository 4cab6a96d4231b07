package terrain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	mapLabel = "map"
	opLabel  = "op"
)

var (
	destructionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_destructions_total",
		Help: "The total number of circular terrain destructions.",
	}, []string{mapLabel})

	pointCutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_point_cuts_total",
		Help: "The total number of single point terrain cuts.",
	}, []string{mapLabel})

	cutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terrain_cut_duration_seconds",
		Help:    "Time spent mutating the terrain tree.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{mapLabel, opLabel})

	solidLeaves = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "terrain_solid_leaves",
		Help: "The number of solid leaves in the terrain tree.",
	}, []string{mapLabel})
)

func instrumentDestruction(name string, took time.Duration, solid int) {
	destructionsTotal.With(prometheus.Labels{mapLabel: name}).Inc()
	cutDuration.With(prometheus.Labels{mapLabel: name, opLabel: "circle"}).Observe(took.Seconds())
	solidLeaves.With(prometheus.Labels{mapLabel: name}).Set(float64(solid))
}

func instrumentPointCut(name string, took time.Duration) {
	pointCutsTotal.With(prometheus.Labels{mapLabel: name}).Inc()
	cutDuration.With(prometheus.Labels{mapLabel: name, opLabel: "point"}).Observe(took.Seconds())
}

func instrumentSolidLeaves(name string, solid int) {
	solidLeaves.With(prometheus.Labels{mapLabel: name}).Set(float64(solid))
}
