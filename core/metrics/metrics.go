// Package metrics defines the sink interface the dispatch core reports
// into. Implementations live in infra/metrics.
package metrics

// Sink receives operational measurements. Implementations must be safe for
// concurrent use; errors are handled inside the sink, never surfaced to
// the mutation path.
type Sink interface {
	// RecordMutation counts one committed mutation per entity and action.
	RecordMutation(entity, action string)
	// RecordBroadcast counts one broadcast sweep's delivery outcome.
	RecordBroadcast(delivered, failed int)
	// RecordSubscribers reports the current subscriber count.
	RecordSubscribers(n int)
}

// NopSink discards all measurements.
type NopSink struct{}

func (NopSink) RecordMutation(string, string) {}
func (NopSink) RecordBroadcast(int, int)      {}
func (NopSink) RecordSubscribers(int)         {}

// Config selects which sinks the service wires up.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
