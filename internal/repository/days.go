package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

func (r *Repository) FindDays(ctx context.Context) ([]domain.Day, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id, name FROM days ORDER BY id`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]domain.Day, 0)
	for rows.Next() {
		var d domain.Day
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

func (r *Repository) FindDayByName(ctx context.Context, name string) (*domain.Day, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id FROM days WHERE name = $1`

	d := &domain.Day{Name: name}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&d.ID); err != nil {
		return nil, err
	}

	return d, nil
}

func (r *Repository) FindDayByID(ctx context.Context, id int64) (*domain.Day, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT name FROM days WHERE id = $1`

	d := &domain.Day{ID: id}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&d.Name); err != nil {
		return nil, err
	}

	return d, nil
}
