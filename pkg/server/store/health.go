package store

// HealthStore reports whether the backing database is reachable. The
// status endpoint is its only consumer.
type HealthStore interface {
	CheckConnectivity() error
}
