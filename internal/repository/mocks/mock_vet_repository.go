package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

type MockVetRepository struct {
	mock.Mock
}

func (m *MockVetRepository) FindAllVets(ctx context.Context) ([]*domain.Vet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vet), args.Error(1)
}

func (m *MockVetRepository) FindVetsPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.Vet], error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[*domain.Vet]), args.Error(1)
}

func (m *MockVetRepository) FindVetByID(ctx context.Context, id int64) (*domain.Vet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vet), args.Error(1)
}

func (m *MockVetRepository) SaveVet(ctx context.Context, vet *domain.Vet) error {
	args := m.Called(ctx, vet)
	return args.Error(0)
}

func (m *MockVetRepository) FindSpecialties(ctx context.Context) ([]domain.Specialty, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Specialty), args.Error(1)
}

func (m *MockVetRepository) FindSpecialtyByName(ctx context.Context, name string) (*domain.Specialty, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Specialty), args.Error(1)
}

func (m *MockVetRepository) FindSpecialtyByID(ctx context.Context, id int64) (*domain.Specialty, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Specialty), args.Error(1)
}

func (m *MockVetRepository) FindDays(ctx context.Context) ([]domain.Day, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Day), args.Error(1)
}

func (m *MockVetRepository) FindDayByName(ctx context.Context, name string) (*domain.Day, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Day), args.Error(1)
}

func (m *MockVetRepository) FindDayByID(ctx context.Context, id int64) (*domain.Day, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Day), args.Error(1)
}
