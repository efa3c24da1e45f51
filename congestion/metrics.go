package congestion

import "github.com/objectmesh/go-objectmesh/metrics"

const subsystem = "congestion"

var (
	samplesCount = metrics.NewCounter(
		"samples_total",
		subsystem,
		"number of execution-time samples recorded",
		[]string{},
	)

	trackedObjects = metrics.NewGauge(
		"tracked_objects",
		subsystem,
		"number of objects with a live observation window",
		[]string{},
	)
)
