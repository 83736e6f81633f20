package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_vets",
		SQL: `CREATE TABLE IF NOT EXISTS vets (
  id         BIGSERIAL PRIMARY KEY,
  first_name TEXT      NOT NULL,
  last_name  TEXT      NOT NULL,
  version    INTEGER   NOT NULL DEFAULT 1
);`,
	},
	{
		Name: "create_table_specialties",
		SQL: `CREATE TABLE IF NOT EXISTS specialties (
  id   BIGSERIAL PRIMARY KEY,
  name TEXT      NOT NULL UNIQUE
);`,
	},
	{
		Name: "create_table_vet_specialties",
		SQL: `CREATE TABLE IF NOT EXISTS vet_specialties (
  vet_id       BIGINT NOT NULL REFERENCES vets (id) ON DELETE CASCADE,
  specialty_id BIGINT NOT NULL REFERENCES specialties (id),
  PRIMARY KEY (vet_id, specialty_id)
);`,
	},
	{
		Name: "create_table_days",
		SQL: `CREATE TABLE IF NOT EXISTS days (
  id   BIGINT PRIMARY KEY,
  name TEXT   NOT NULL UNIQUE
);`,
	},
	{
		Name: "create_table_vet_available_days",
		SQL: `CREATE TABLE IF NOT EXISTS vet_available_days (
  vet_id BIGINT NOT NULL REFERENCES vets (id) ON DELETE CASCADE,
  day_id BIGINT NOT NULL REFERENCES days (id),
  PRIMARY KEY (vet_id, day_id)
);`,
	},
	{
		Name: "create_index_vets_last_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_vets_last_name ON vets (last_name);`,
	},
	{
		Name: "insert_specialties",
		SQL: `INSERT INTO specialties (name) VALUES
  ('radiology'), ('surgery'), ('dentistry')
ON CONFLICT (name) DO NOTHING;`,
	},
	{
		Name: "insert_days",
		SQL: `INSERT INTO days (id, name) VALUES
  (1, 'Monday'), (2, 'Tuesday'), (3, 'Wednesday'), (4, 'Thursday'),
  (5, 'Friday'), (6, 'Saturday'), (7, 'Sunday')
ON CONFLICT (id) DO NOTHING;`,
	},
}

// EnsureMigrated 在 vets 表不存在时依次执行建表和参考数据的写入
func EnsureMigrated(ctx context.Context, db *sql.DB) error {
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.vets') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return fmt.Errorf("检查数据表失败: %w", err)
	}

	if exists {
		slog.Info("数据表已存在，跳过迁移")
		return nil
	}

	slog.Info("开始执行数据库迁移", "steps", len(steps))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			slog.Error("迁移步骤执行失败", "step", step.Name, "error", err)
			return fmt.Errorf("迁移步骤 %s 执行失败: %w", step.Name, err)
		}
		slog.Debug("迁移步骤执行成功", "step", step.Name, "duration", time.Since(stepStart))
	}

	slog.Info("数据库迁移完成", "duration", time.Since(start))

	return nil
}
