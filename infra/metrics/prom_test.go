package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	sink.RecordMutation("job", "job.assign")
	sink.RecordMutation("job", "job.assign")
	sink.RecordBroadcast(3, 1)
	sink.RecordSubscribers(4)

	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.mutations.WithLabelValues("job", "job.assign")); got != 2 {
		t.Errorf("mutations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(ps.deliveries.WithLabelValues("delivered")); got != 3 {
		t.Errorf("delivered = %v, want 3", got)
	}
	if got := testutil.ToFloat64(ps.deliveries.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ps.subscribers); got != 4 {
		t.Errorf("subscribers = %v, want 4", got)
	}
}

func TestPromSinkDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Re-registering on the same registry reuses the existing collectors.
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second: %v", err)
	}
}
