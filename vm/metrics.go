package vm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/objectmesh/go-objectmesh/metrics"
)

const (
	subsystem = "vm"

	succeeded = "succeeded"
	failed    = "failed"
	rejected  = "rejected"
)

var (
	executedCount = metrics.NewCounter(
		"transactions_executed",
		subsystem,
		"number of execution attempts by outcome and scheduling source",
		[]string{"outcome", "source"},
	)

	executionDuration = metrics.NewHistogramWithBuckets(
		"execution_duration_seconds",
		subsystem,
		"observed execution time per transaction",
		[]string{"source"},
		prometheus.ExponentialBuckets(0.00001, 2, 14),
	)
)
