package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

// ErrEditConflict 表示保存时兽医记录已被其他请求修改（版本号不匹配）
var ErrEditConflict = errors.New("edit conflict")

// ErrDuplicateSpecialty 表示同名专业已存在
var ErrDuplicateSpecialty = errors.New("duplicate specialty")

// VetRepository 描述兽医模块所需的全部持久化操作。
// 所有按 ID 或名称查找的方法在记录不存在时都返回 sql.ErrNoRows。
type VetRepository interface {
	FindAllVets(ctx context.Context) ([]*domain.Vet, error)
	FindVetsPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.Vet], error)
	FindVetByID(ctx context.Context, id int64) (*domain.Vet, error)
	// SaveVet 在 ID 为 0 时插入新记录，否则更新姓名并整体替换专业和出诊日
	SaveVet(ctx context.Context, vet *domain.Vet) error

	FindSpecialties(ctx context.Context) ([]domain.Specialty, error)
	FindSpecialtyByName(ctx context.Context, name string) (*domain.Specialty, error)
	FindSpecialtyByID(ctx context.Context, id int64) (*domain.Specialty, error)

	FindDays(ctx context.Context) ([]domain.Day, error)
	FindDayByName(ctx context.Context, name string) (*domain.Day, error)
	FindDayByID(ctx context.Context, id int64) (*domain.Day, error)
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

var _ VetRepository = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
