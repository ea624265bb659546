package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOrchMetricsObserve(t *testing.T) {
	m := NewOrchMetrics(prometheus.NewRegistry())
	m.ObserveRequest("ask", "ok", 0.5)
	m.ObserveTurn("ask", "user")
	m.ObserveUpload(5, 3)
	m.ObserveUpload(1, 4)
}

func TestOrchMetricsNilSafe(t *testing.T) {
	var m *OrchMetrics
	m.ObserveRequest("ask", "ok", 0.1)
	m.ObserveTurn("booking", "assistant")
	m.ObserveUpload(2, 1)
}

func TestSnapshotAggregatesOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrchMetrics(reg)
	m.ObserveRequest("ask", "ok", 0.3)
	m.ObserveRequest("ask", "ok", 0.4)
	m.ObserveRequest("booking_bootstrap", "transport_error", 1.2)
	m.ObserveRequest("upload", "ok", 20)

	snap := Snapshot(reg)
	if snap.Total != 4 {
		t.Fatalf("expected 4 calls, got %d", snap.Total)
	}
	if snap.OK != 3 || snap.Failed != 1 {
		t.Fatalf("unexpected ok/failed split %d/%d", snap.OK, snap.Failed)
	}
	if snap.ByKind["ask"] != 2 || snap.ByKind["upload"] != 1 {
		t.Fatalf("unexpected per-kind counts %v", snap.ByKind)
	}
	if snap.P95Ms != 30000 {
		t.Fatalf("expected p95 in the 30s bucket, got %v", snap.P95Ms)
	}
	if snap.P90Ms <= 0 {
		t.Fatalf("expected positive p90, got %v", snap.P90Ms)
	}
}

func TestSnapshotEmptyRegistry(t *testing.T) {
	snap := Snapshot(prometheus.NewRegistry())
	if snap.Total != 0 || snap.P90Ms != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
