// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Record kinds used as counter labels.
const (
	KindCategory      = "category"
	KindCard          = "card"
	KindExpense       = "expense"
	KindCreditExpense = "credit_expense"
)

// Event publish outcomes.
const (
	StatusSuccess = "success"
	StatusDropped = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Record management metrics, labelled by kind
	IncRecordCreated(kind string)
	IncRecordUpdated(kind string)
	IncRecordDeleted(kind string)

	// Credit expense pipeline metrics
	IncCategoryAutoCreated()
	IncCategoryRaceRecovered()
	IncScheduleComputed()
	ObserveWriteDuration(duration time.Duration)

	// Domain event metrics
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
