package model

// MetricsWriter defines a generic interface for persisting a derived metrics
// collection. Each run overwrites the previous record; there are no append
// semantics.
type MetricsWriter interface {
	// Write persists the full collection. Implementations report the
	// attempted destination in any returned error.
	Write(metrics []*DeviceMetrics) error

	// Destination describes where the data goes, for logging.
	Destination() string
}
