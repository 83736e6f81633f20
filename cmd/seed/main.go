package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/migration"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/seed"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机兽医, 2: 从 CSV 文件导入兽医)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&file, "file", "", "要导入的 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		logger.Error("未配置数据库")
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, dbpool); err != nil {
			logger.Error("数据库迁移失败", "error", err)
			return
		}
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的兽医数量")
			return
		}

		specialties, err := repo.FindSpecialties(context.Background())
		if err != nil {
			slog.Error("无法获取专业列表", slog.String("error", err.Error()))
			return
		}
		days, err := repo.FindDays(context.Background())
		if err != nil {
			slog.Error("无法获取出诊日列表", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			vet := utils.GenerateRandomVet(specialties, days, cfg.Seed.MaxSpecialties, cfg.Seed.MaxDays)
			if err := repo.SaveVet(context.Background(), vet); err != nil {
				slog.Error("无法插入兽医", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入兽医成功", slog.Int("count", cnt))
	case 2:
		if file == "" {
			slog.Error("请指定 CSV 文件路径")
			return
		}

		result, err := seed.ImportVetsCSVFile(context.Background(), repo, file)
		if err != nil {
			slog.Error("导入兽医失败", slog.String("error", err.Error()))
			return
		}

		slog.Info("导入兽医完成", slog.Int("imported", result.Imported), slog.Int("skipped", result.Skipped))
	default:
		slog.Error("指定的操作非法")
	}
}
