package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

func (r *Repository) FindSpecialties(ctx context.Context) ([]domain.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id, name FROM specialties ORDER BY name`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	specialties := make([]domain.Specialty, 0)
	for rows.Next() {
		var s domain.Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		specialties = append(specialties, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return specialties, nil
}

func (r *Repository) FindSpecialtyByName(ctx context.Context, name string) (*domain.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id FROM specialties WHERE name = $1`

	s := &domain.Specialty{Name: name}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&s.ID); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Repository) FindSpecialtyByID(ctx context.Context, id int64) (*domain.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT name FROM specialties WHERE id = $1`

	s := &domain.Specialty{ID: id}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&s.Name); err != nil {
		return nil, err
	}

	return s, nil
}

// CreateSpecialty 只在初始化参考数据时使用
func (r *Repository) CreateSpecialty(ctx context.Context, s *domain.Specialty) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `INSERT INTO specialties (name) VALUES ($1) RETURNING id`

	return r.dbpool.QueryRowContext(ctx, query, s.Name).Scan(&s.ID)
}
