package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Created                map[string]uint64 `json:"created"`
	Updated                map[string]uint64 `json:"updated"`
	Deleted                map[string]uint64 `json:"deleted"`
	CategoriesAutoCreated  uint64            `json:"categories_auto_created"`
	CategoryRacesRecovered uint64            `json:"category_races_recovered"`
	SchedulesComputed      uint64            `json:"schedules_computed"`
	WriteDurationCount     uint64            `json:"write_duration_count"`
	WriteDurationTotalNs   int64             `json:"write_duration_total_ns"`
	EventsPublished        map[string]uint64 `json:"events_published"`
}

// InMemoryRecorder stores metrics in memory for tests and the metrics endpoint.
type InMemoryRecorder struct {
	mu              sync.Mutex
	created         map[string]uint64
	updated         map[string]uint64
	deleted         map[string]uint64
	eventsPublished map[string]uint64

	categoriesAutoCreated  uint64
	categoryRacesRecovered uint64
	schedulesComputed      uint64
	writeDurationCount     uint64
	writeDurationTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		created:         make(map[string]uint64),
		updated:         make(map[string]uint64),
		deleted:         make(map[string]uint64),
		eventsPublished: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Created:                maps.Clone(m.created),
		Updated:                maps.Clone(m.updated),
		Deleted:                maps.Clone(m.deleted),
		CategoriesAutoCreated:  atomic.LoadUint64(&m.categoriesAutoCreated),
		CategoryRacesRecovered: atomic.LoadUint64(&m.categoryRacesRecovered),
		SchedulesComputed:      atomic.LoadUint64(&m.schedulesComputed),
		WriteDurationCount:     atomic.LoadUint64(&m.writeDurationCount),
		WriteDurationTotalNs:   atomic.LoadInt64(&m.writeDurationTotalNs),
		EventsPublished:        maps.Clone(m.eventsPublished),
	}
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, label string) {
	m.mu.Lock()
	counter[label]++
	m.mu.Unlock()
}

// IncRecordCreated increments the created counter for kind.
func (m *InMemoryRecorder) IncRecordCreated(kind string) {
	m.inc(m.created, kind)
}

// IncRecordUpdated increments the updated counter for kind.
func (m *InMemoryRecorder) IncRecordUpdated(kind string) {
	m.inc(m.updated, kind)
}

// IncRecordDeleted increments the deleted counter for kind.
func (m *InMemoryRecorder) IncRecordDeleted(kind string) {
	m.inc(m.deleted, kind)
}

// IncCategoryAutoCreated counts categories created implicitly by name.
func (m *InMemoryRecorder) IncCategoryAutoCreated() {
	atomic.AddUint64(&m.categoriesAutoCreated, 1)
}

// IncCategoryRaceRecovered counts get-or-create calls that lost an insert race.
func (m *InMemoryRecorder) IncCategoryRaceRecovered() {
	atomic.AddUint64(&m.categoryRacesRecovered, 1)
}

// IncScheduleComputed counts cut-off/payment date derivations.
func (m *InMemoryRecorder) IncScheduleComputed() {
	atomic.AddUint64(&m.schedulesComputed, 1)
}

// ObserveWriteDuration records credit expense write duration.
func (m *InMemoryRecorder) ObserveWriteDuration(duration time.Duration) {
	atomic.AddUint64(&m.writeDurationCount, 1)
	atomic.AddInt64(&m.writeDurationTotalNs, duration.Nanoseconds())
}

// IncEventPublished counts domain event publish outcomes.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	m.inc(m.eventsPublished, status)
}
