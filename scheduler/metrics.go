package scheduler

import "github.com/objectmesh/go-objectmesh/metrics"

const subsystem = "scheduler"

var (
	classifiedCount = metrics.NewCounter(
		"classified_total",
		subsystem,
		"number of transactions classified, by execution path",
		[]string{"source"},
	)

	deferredCount = metrics.NewCounter(
		"deferred_total",
		subsystem,
		"number of transactions deferred by congestion control",
		[]string{},
	)

	deferredGauge = metrics.NewGauge(
		"deferred_waiting",
		subsystem,
		"transactions currently waiting for a later execution slot",
		[]string{},
	)
)
