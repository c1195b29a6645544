package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRecordCreated(kind string)                {}
func (n *NoopRecorder) IncRecordUpdated(kind string)                {}
func (n *NoopRecorder) IncRecordDeleted(kind string)                {}
func (n *NoopRecorder) IncCategoryAutoCreated()                     {}
func (n *NoopRecorder) IncCategoryRaceRecovered()                   {}
func (n *NoopRecorder) IncScheduleComputed()                        {}
func (n *NoopRecorder) ObserveWriteDuration(duration time.Duration) {}
func (n *NoopRecorder) IncEventPublished(status string)             {}
