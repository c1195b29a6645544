package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/cardcycle/cardcycle/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, _ *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabelled(w, "cardcycle_records_created_total", "kind", snap.Created)
	writeLabelled(w, "cardcycle_records_updated_total", "kind", snap.Updated)
	writeLabelled(w, "cardcycle_records_deleted_total", "kind", snap.Deleted)

	writeMetric(w, "cardcycle_categories_auto_created_total %d\n", snap.CategoriesAutoCreated)
	writeMetric(w, "cardcycle_category_races_recovered_total %d\n", snap.CategoryRacesRecovered)
	writeMetric(w, "cardcycle_schedules_computed_total %d\n", snap.SchedulesComputed)
	writeMetric(w, "cardcycle_write_duration_seconds_count %d\n", snap.WriteDurationCount)
	writeMetric(w, "cardcycle_write_duration_seconds_sum %.6f\n", float64(snap.WriteDurationTotalNs)/1e9)

	writeLabelled(w, "cardcycle_events_published_total", "status", snap.EventsPublished)
}

// writeLabelled writes one sample per label value, in a stable order.
func writeLabelled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
