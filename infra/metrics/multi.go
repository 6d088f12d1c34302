package metrics

import coremetrics "github.com/fleetops/dispatchd/core/metrics"

// MultiSink fans measurements out to several sinks.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordMutation(entity, action string) {
	for _, s := range m.sinks {
		s.RecordMutation(entity, action)
	}
}

func (m *MultiSink) RecordBroadcast(delivered, failed int) {
	for _, s := range m.sinks {
		s.RecordBroadcast(delivered, failed)
	}
}

func (m *MultiSink) RecordSubscribers(n int) {
	for _, s := range m.sinks {
		s.RecordSubscribers(n)
	}
}
