package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
)

// Store 是导入所需的存储能力，PostgreSQL 和内存实现都满足
type Store interface {
	repository.VetRepository
	CreateSpecialty(ctx context.Context, s *domain.Specialty) error
}

var requiredHeaders = []string{"first_name", "last_name", "specialties", "days"}

type ImportResult struct {
	Imported int
	Skipped  int
}

func ImportVetsCSVFile(ctx context.Context, store Store, path string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ImportVetsCSV(ctx, store, file)
}

// ImportVetsCSV 逐行导入兽医，列表列使用分号分隔。
// 不存在的专业会被创建，不存在的出诊日会导致该行被跳过。
func ImportVetsCSV(ctx context.Context, store Store, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.TrimSpace(header)] = i
	}
	for _, header := range requiredHeaders {
		if _, ok := index[header]; !ok {
			return nil, fmt.Errorf("缺少列 %s", header)
		}
	}

	result := &ImportResult{}
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return result, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		vet, err := buildVet(ctx, store, row, index)
		if err != nil {
			slog.Error("跳过无效的行", "line", line, "error", err)
			result.Skipped++
			continue
		}

		if err := store.SaveVet(ctx, vet); err != nil {
			slog.Error("无法插入兽医", "line", line, "error", err)
			result.Skipped++
			continue
		}

		result.Imported++
	}

	return result, nil
}

func buildVet(ctx context.Context, store Store, row []string, index map[string]int) (*domain.Vet, error) {
	vet := &domain.Vet{
		FirstName:   strings.TrimSpace(row[index["first_name"]]),
		LastName:    strings.TrimSpace(row[index["last_name"]]),
		Specialties: []domain.Specialty{},
		Days:        []domain.Day{},
	}
	if vet.FirstName == "" || vet.LastName == "" {
		return nil, errors.New("姓名不能为空")
	}

	for _, name := range splitList(row[index["specialties"]]) {
		specialty, err := findOrCreateSpecialty(ctx, store, name)
		if err != nil {
			return nil, err
		}
		vet.AddSpecialty(*specialty)
	}

	for _, name := range splitList(row[index["days"]]) {
		day, err := store.FindDayByName(ctx, name)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return nil, fmt.Errorf("出诊日 %s 不存在", name)
			default:
				return nil, err
			}
		}
		vet.AddDay(*day)
	}

	return vet, nil
}

func findOrCreateSpecialty(ctx context.Context, store Store, name string) (*domain.Specialty, error) {
	specialty, err := store.FindSpecialtyByName(ctx, name)
	if err == nil {
		return specialty, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	specialty = &domain.Specialty{Name: name}
	if err := store.CreateSpecialty(ctx, specialty); err != nil {
		// 并发导入时可能已被其他进程创建
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "specialties_name_key",
			errors.Is(err, repository.ErrDuplicateSpecialty):
			return store.FindSpecialtyByName(ctx, name)
		default:
			return nil, err
		}
	}

	slog.Info("已创建专业", "name", name, "id", specialty.ID)
	return specialty, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
