package history

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nearbite/nearbite/internal/domain/pipeline"
)

// PostgresRecorder persists run history in Postgres.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder constructs the adapter.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Record inserts one run row.
func (r *PostgresRecorder) Record(ctx context.Context, rec pipeline.RunRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO runs (
			id, origin_key, queries, state, candidate_count, recommendation_count,
			search_live, search_cached, details_live, details_cached,
			duration_live, duration_cached, duration_failed,
			took_ms, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, rec.ID, rec.OriginKey, rec.Queries, string(rec.State), rec.CandidateCount, rec.RecommendationCount,
		rec.Cost.SearchLive, rec.Cost.SearchCached, rec.Cost.DetailsLive, rec.Cost.DetailsCached,
		rec.Cost.DurationLive, rec.Cost.DurationCached, rec.Cost.DurationFailed,
		rec.TookMs, rec.CreatedAt)
	return err
}

// ListRecent returns the newest runs, newest first.
func (r *PostgresRecorder) ListRecent(ctx context.Context, limit int) ([]pipeline.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, origin_key, queries, state, candidate_count, recommendation_count,
		       search_live, search_cached, details_live, details_cached,
		       duration_live, duration_cached, duration_failed,
		       took_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]pipeline.RunRecord, 0, limit)
	for rows.Next() {
		var rec pipeline.RunRecord
		var state string
		if err := rows.Scan(&rec.ID, &rec.OriginKey, &rec.Queries, &state, &rec.CandidateCount, &rec.RecommendationCount,
			&rec.Cost.SearchLive, &rec.Cost.SearchCached, &rec.Cost.DetailsLive, &rec.Cost.DetailsCached,
			&rec.Cost.DurationLive, &rec.Cost.DurationCached, &rec.Cost.DurationFailed,
			&rec.TookMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.State = pipeline.State(state)
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ pipeline.Recorder = (*PostgresRecorder)(nil)
