package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/utils"
)

func (r *Repository) FindAllVets(ctx context.Context) ([]*domain.Vet, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id, first_name, last_name, version FROM vets ORDER BY id`

	vets, err := r.scanVets(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, vets); err != nil {
		return nil, err
	}

	return vets, nil
}

func (r *Repository) FindVetsPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.Vet], error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var total int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM vets`).Scan(&total); err != nil {
		return nil, err
	}

	query := `
		SELECT id, first_name, last_name, version
		FROM vets
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	vets, err := r.scanVets(ctx, query, req.Size, req.Offset())
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, vets); err != nil {
		return nil, err
	}

	return domain.NewPage(vets, req, total), nil
}

func (r *Repository) FindVetByID(ctx context.Context, id int64) (*domain.Vet, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT first_name, last_name, version FROM vets WHERE id = $1`

	vet := &domain.Vet{ID: id}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&vet.FirstName, &vet.LastName, &vet.Version); err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, []*domain.Vet{vet}); err != nil {
		return nil, err
	}

	return vet, nil
}

func (r *Repository) SaveVet(ctx context.Context, vet *domain.Vet) error {
	if err := utils.ValidateVetAssociations(vet); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if vet.IsNew() {
		query := `
			INSERT INTO vets (first_name, last_name)
			VALUES ($1, $2)
			RETURNING id, version
		`
		if err := tx.QueryRowContext(ctx, query, vet.FirstName, vet.LastName).Scan(&vet.ID, &vet.Version); err != nil {
			return err
		}
	} else {
		query := `
			UPDATE vets
			SET
				first_name = $1,
				last_name = $2,
				version = version + 1
			WHERE id = $3 AND version = $4
			RETURNING version
		`
		params := []any{vet.FirstName, vet.LastName, vet.ID, vet.Version}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&vet.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// 版本号不匹配，说明记录已被其他请求修改
				return ErrEditConflict
			}
			return err
		}
	}

	// 关联关系整体替换
	if _, err := tx.ExecContext(ctx, `DELETE FROM vet_specialties WHERE vet_id = $1`, vet.ID); err != nil {
		return err
	}
	for _, s := range vet.Specialties {
		query := `INSERT INTO vet_specialties (vet_id, specialty_id) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, vet.ID, s.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vet_available_days WHERE vet_id = $1`, vet.ID); err != nil {
		return err
	}
	for _, d := range vet.Days {
		query := `INSERT INTO vet_available_days (vet_id, day_id) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, vet.ID, d.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) scanVets(ctx context.Context, query string, args ...any) ([]*domain.Vet, error) {
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vets := make([]*domain.Vet, 0)
	for rows.Next() {
		vet := &domain.Vet{}
		if err := rows.Scan(&vet.ID, &vet.FirstName, &vet.LastName, &vet.Version); err != nil {
			return nil, err
		}
		vets = append(vets, vet)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vets, nil
}

// loadAssociations 依次为每个兽医加载专业和出诊日
func (r *Repository) loadAssociations(ctx context.Context, vets []*domain.Vet) error {
	for _, vet := range vets {
		specialties, err := r.findVetSpecialties(ctx, vet.ID)
		if err != nil {
			return err
		}
		vet.Specialties = specialties

		days, err := r.findVetDays(ctx, vet.ID)
		if err != nil {
			return err
		}
		vet.Days = days
	}

	return nil
}

func (r *Repository) findVetSpecialties(ctx context.Context, vetID int64) ([]domain.Specialty, error) {
	query := `
		SELECT s.id, s.name
		FROM vet_specialties vs
		JOIN specialties s ON s.id = vs.specialty_id
		WHERE vs.vet_id = $1
		ORDER BY s.name
	`

	rows, err := r.dbpool.QueryContext(ctx, query, vetID)
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

	return specialties, rows.Err()
}

func (r *Repository) findVetDays(ctx context.Context, vetID int64) ([]domain.Day, error) {
	query := `
		SELECT d.id, d.name
		FROM vet_available_days vd
		JOIN days d ON d.id = vd.day_id
		WHERE vd.vet_id = $1
		ORDER BY d.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, vetID)
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

	return days, rows.Err()
}
