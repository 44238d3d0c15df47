package health

import "context"

// DBPinger checks document store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// AffinityCounter reports the size of the current affinity generation.
type AffinityCounter interface {
	Count(ctx context.Context) (int, error)
}
