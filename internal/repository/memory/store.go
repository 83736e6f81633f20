// Package memory 提供一个进程内的兽医存储，在未配置数据库时以及测试中使用。
package memory

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/utils"
)

var (
	DefaultSpecialties = []string{"radiology", "surgery", "dentistry"}
	DefaultDays        = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

type Store struct {
	mu              sync.RWMutex
	vets            map[int64]*domain.Vet
	specialties     []domain.Specialty
	days            []domain.Day
	nextVetID       int64
	nextSpecialtyID int64
}

var _ repository.VetRepository = (*Store)(nil)

// NewStore 返回一个已写入默认专业和出诊日的存储
func NewStore() *Store {
	s := &Store{
		vets:            make(map[int64]*domain.Vet),
		nextVetID:       1,
		nextSpecialtyID: 1,
	}

	for _, name := range DefaultSpecialties {
		s.specialties = append(s.specialties, domain.Specialty{ID: s.nextSpecialtyID, Name: name})
		s.nextSpecialtyID++
	}
	for i, name := range DefaultDays {
		s.days = append(s.days, domain.Day{ID: int64(i + 1), Name: name})
	}

	return s
}

func (s *Store) FindAllVets(ctx context.Context) ([]*domain.Vet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedVets(), nil
}

func (s *Store) FindVetsPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.Vet], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedVets()
	// 先比较页码再计算偏移量，避免页码过大时溢出
	start := len(all)
	if req.Size > 0 && req.Page >= 0 && req.Page <= len(all)/req.Size {
		start = min(req.Offset(), len(all))
	}
	end := start + min(max(req.Size, 0), len(all)-start)

	return domain.NewPage(all[start:end], req, int64(len(all))), nil
}

func (s *Store) FindVetByID(ctx context.Context, id int64) (*domain.Vet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vet, ok := s.vets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return vet.Clone(), nil
}

func (s *Store) SaveVet(ctx context.Context, vet *domain.Vet) error {
	if err := utils.ValidateVetAssociations(vet); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range vet.Specialties {
		if !slices.ContainsFunc(s.specialties, func(x domain.Specialty) bool { return x.ID == sp.ID }) {
			return sql.ErrNoRows
		}
	}
	for _, d := range vet.Days {
		if !slices.ContainsFunc(s.days, func(x domain.Day) bool { return x.ID == d.ID }) {
			return sql.ErrNoRows
		}
	}

	if vet.IsNew() {
		vet.ID = s.nextVetID
		vet.Version = 1
		s.nextVetID++
		s.vets[vet.ID] = vet.Clone()
		return nil
	}

	stored, ok := s.vets[vet.ID]
	if !ok || stored.Version != vet.Version {
		return repository.ErrEditConflict
	}

	vet.Version++
	s.vets[vet.ID] = vet.Clone()

	return nil
}

func (s *Store) FindSpecialties(ctx context.Context) ([]domain.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.specialties)
	slices.SortFunc(out, func(a, b domain.Specialty) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) FindSpecialtyByName(ctx context.Context, name string) (*domain.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sp := range s.specialties {
		if sp.Name == name {
			return &sp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) FindSpecialtyByID(ctx context.Context, id int64) (*domain.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sp := range s.specialties {
		if sp.ID == id {
			return &sp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// CreateSpecialty 供导入工具在专业不存在时创建
func (s *Store) CreateSpecialty(ctx context.Context, specialty *domain.Specialty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.specialties, func(x domain.Specialty) bool { return x.Name == specialty.Name }) {
		return repository.ErrDuplicateSpecialty
	}

	specialty.ID = s.nextSpecialtyID
	s.nextSpecialtyID++
	s.specialties = append(s.specialties, *specialty)

	return nil
}

func (s *Store) FindDays(ctx context.Context) ([]domain.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.days), nil
}

func (s *Store) FindDayByName(ctx context.Context, name string) (*domain.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.days {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) FindDayByID(ctx context.Context, id int64) (*domain.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.days {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

// sortedVets 调用方需持有读锁
func (s *Store) sortedVets() []*domain.Vet {
	out := make([]*domain.Vet, 0, len(s.vets))
	for _, v := range s.vets {
		out = append(out, v.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Vet) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
