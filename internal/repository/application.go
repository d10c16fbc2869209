package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logstream-io/logstream/internal/model"
)

// ApplicationRepository reads log source definitions. Applications are
// managed by the resource API outside this pipeline; this repository only
// covers the read paths the pipeline itself needs.
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository returns an ApplicationRepository using the given pool.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// Exists reports whether an active application with the given name exists.
func (r *ApplicationRepository) Exists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE name = $1 AND active)`, name).Scan(&found)
	return found, err
}

// List returns all applications ordered by name.
func (r *ApplicationRepository) List(ctx context.Context) ([]model.Application, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, active, created_at, updated_at
		FROM applications
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Application
	for rows.Next() {
		var app model.Application
		if err := rows.Scan(
			&app.ID,
			&app.Name,
			&app.Description,
			&app.Active,
			&app.CreatedAt,
			&app.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, app)
	}
	return list, rows.Err()
}
