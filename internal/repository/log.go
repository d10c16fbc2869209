package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logstream-io/logstream/internal/model"
)

// LogRepository persists and reads log records. The logs table is
// append-only: records are inserted once and never updated.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository returns a LogRepository using the given pool.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Insert writes one log record and returns it with ID and timestamps set.
func (r *LogRepository) Insert(ctx context.Context, rec *model.LogRecord) error {
	query := `
		INSERT INTO logs (id, message, log_level, trace_id, source_app, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Message,
		rec.LogLevel,
		rec.TraceID,
		rec.SourceApp,
		rec.Date,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// ListNewerThan returns up to limit records with date strictly greater than
// since, ascending by date. Ascending order lets pollers use the last
// returned record's date as the next since cursor.
func (r *LogRepository) ListNewerThan(ctx context.Context, since time.Time, limit int) ([]model.LogRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message, log_level, trace_id, source_app, date, created_at, updated_at
		FROM logs
		WHERE date > $1
		ORDER BY date ASC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.LogRecord
	for rows.Next() {
		var rec model.LogRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Message,
			&rec.LogLevel,
			&rec.TraceID,
			&rec.SourceApp,
			&rec.Date,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// ListRecent returns up to limit records ordered by created_at descending.
func (r *LogRepository) ListRecent(ctx context.Context, limit int) ([]model.LogRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message, log_level, trace_id, source_app, date, created_at, updated_at
		FROM logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.LogRecord
	for rows.Next() {
		var rec model.LogRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Message,
			&rec.LogLevel,
			&rec.TraceID,
			&rec.SourceApp,
			&rec.Date,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
