package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xdjs/artist-bio-gen/internal/domain"
	"github.com/xdjs/artist-bio-gen/internal/retry"
)

// dbMaxAttempts and dbBackoff implement the database transient-retry
// schedule: the first try plus up to 3 retries (4 attempts total),
// 1*2^attempt seconds between tries, no jitter (the source's separate
// DB-retry decorator's max_retries=3 over range(max_retries+1), unified
// here under the one retry.Execute mechanism per Design Notes).
const (
	dbMaxAttempts = 4
)

// ArtistRepo executes the parameterised UPDATE against artists/test_artists.
type ArtistRepo struct {
	pool *pgxpool.Pool
}

// NewArtistRepo constructs an ArtistRepo over an existing pool.
func NewArtistRepo(pool *pgxpool.Pool) *ArtistRepo {
	return &ArtistRepo{pool: pool}
}

func tableName(testMode bool) string {
	if testMode {
		return "test_artists"
	}
	return "artists"
}

// UpdateBio runs the update for one work item, retrying transient
// database errors and classifying the final outcome into a
// domain.PersistenceStatus.
func (r *ArtistRepo) UpdateBio(ctx context.Context, logger *slog.Logger, workerTag string, testMode, skipExisting bool, id uuid.UUID, bio string) (domain.PersistenceStatus, error) {
	cfg := retry.Config{
		MaxAttempts: dbMaxAttempts,
		Backoff:     dbBackoff,
		Classify:    classifyForRetry,
	}

	rowsAffected, err := retry.Execute(ctx, cfg, workerTag, logger, func() (int64, error) {
		return r.update(ctx, testMode, skipExisting, id, bio)
	})
	if err != nil {
		kind := ClassifyError(err)
		if kind == ErrorKindSystemic {
			return domain.PersistenceError, fmt.Errorf("%w: %w", ErrSystemicDatabase, err)
		}
		return domain.PersistenceError, err
	}

	if rowsAffected >= 1 {
		return domain.PersistenceUpdated, nil
	}
	return domain.PersistenceSkipped, nil
}

func (r *ArtistRepo) update(ctx context.Context, testMode, skipExisting bool, id uuid.UUID, bio string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	table := tableName(testMode)
	sql := fmt.Sprintf("UPDATE %s SET bio = $1 WHERE id = $2", table)
	if skipExisting {
		sql += " AND bio IS NULL"
	}

	tag, err := r.pool.Exec(queryCtx, sql, bio, id)
	if err != nil {
		return 0, fmt.Errorf("update bio: %w", err)
	}
	return tag.RowsAffected(), nil
}

func classifyForRetry(err error) retry.Classification {
	kind := ClassifyError(err)
	return retry.Classification{
		Kind:        retry.KindServer, // placeholder class; dbBackoff ignores Kind
		ShouldRetry: kind == ErrorKindTransient,
	}
}

func dbBackoff(attempt int, _ retry.Classification, _ retry.JitterSource) time.Duration {
	delay := 1.0
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return time.Duration(delay * float64(time.Second))
}
