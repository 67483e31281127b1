package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// TestRecordHTTPStatus_CountsByStatusCode はステータスコード別カウンタを検証する。
func TestRecordHTTPStatus_CountsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetric(t, reg, "paperdeck_http_status_total")
	if mf == nil {
		t.Fatal("paperdeck_http_status_total metric not found")
	}
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 labeled series, got %d", len(mf.GetMetric()))
	}
}

// TestRecordSnapshotPersist_SplitsByResult は永続化結果別カウンタを検証する。
func TestRecordSnapshotPersist_SplitsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSnapshotPersist(3*time.Millisecond, nil)
	c.RecordSnapshotPersist(5*time.Millisecond, nil)
	c.RecordSnapshotPersist(2*time.Millisecond, errors.New("disk full"))

	mf := findMetric(t, reg, "paperdeck_snapshot_persist_total")
	if mf == nil {
		t.Fatal("paperdeck_snapshot_persist_total metric not found")
	}
	for _, m := range mf.GetMetric() {
		for _, label := range m.GetLabel() {
			switch label.GetValue() {
			case "success":
				if m.GetCounter().GetValue() != 2 {
					t.Errorf("success = %v, want 2", m.GetCounter().GetValue())
				}
			case "failure":
				if m.GetCounter().GetValue() != 1 {
					t.Errorf("failure = %v, want 1", m.GetCounter().GetValue())
				}
			}
		}
	}
}

// TestRecordLogin_CountsByProvider はプロバイダー別ログインカウンタを検証する。
func TestRecordLogin_CountsByProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("google")
	c.RecordLogin("google")
	c.RecordLogin("kakao")

	mf := findMetric(t, reg, "paperdeck_logins_total")
	if mf == nil {
		t.Fatal("paperdeck_logins_total metric not found")
	}
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 labeled series, got %d", len(mf.GetMetric()))
	}
}

// TestRecordFeedServed_Accumulates はフィード論文数カウンタの累積を検証する。
func TestRecordFeedServed_Accumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFeedServed(10)
	c.RecordFeedServed(5)

	mf := findMetric(t, reg, "paperdeck_feed_papers_served_total")
	if mf == nil {
		t.Fatal("paperdeck_feed_papers_served_total metric not found")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 15 {
		t.Errorf("feed_papers_served_total = %v, want 15", got)
	}
}
