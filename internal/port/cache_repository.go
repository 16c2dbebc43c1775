package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// GetSnapshot returns a cached dashboard payload, ok is false on a miss
	GetSnapshot(ctx context.Context, name string) (payload []byte, ok bool, err error)

	// SnapshotGeneration returns the counter InvalidateSnapshots bumps
	SnapshotGeneration(ctx context.Context) (int64, error)

	// SetSnapshot stores a payload only while the generation is unchanged,
	// stored is false when an invalidation happened since it was read
	SetSnapshot(ctx context.Context, name string, payload []byte, ttl time.Duration, generation int64) (stored bool, err error)

	// InvalidateSnapshots drops every cached dashboard payload and bumps the generation
	InvalidateSnapshots(ctx context.Context) error

	// MarkCritical records an item as critical, returns true only the first time
	MarkCritical(ctx context.Context, itemID string) (bool, error)

	// ClearCritical forgets the critical mark so the next drop alerts again
	ClearCritical(ctx context.Context, itemID string) error
}
