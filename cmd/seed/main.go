package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"
	"github.com/hr-onboarding/employee-wizard/backend/internal/seed"
	"github.com/hr-onboarding/employee-wizard/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var lookupFile string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机操作员, 2: 插入部门和办公地点, 3: 插入随机员工)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&lookupFile, "lookups", "", "部门和办公地点的 YAML 文件，默认使用 SEED_LOOKUP_FILE")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if lookupFile == "" {
		lookupFile = cfg.Seed.LookupFile
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

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(); err != nil {
		logger.Error("无法创建数据表", "error", err)
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的操作员数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			operator, err := utils.GenerateRandomOperator(cfg.Seed.Operator.Password, cfg.Email.CompanyDomain)
			if err != nil {
				slog.Error("无法生成随机操作员", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateOperator(operator); err != nil {
				slog.Error("无法插入操作员", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入操作员成功", slog.Int("count", cnt))
	case 2:
		lookups, err := seed.LoadLookups(lookupFile)
		if err != nil {
			slog.Error("无法读取候选项文件", slog.String("file", lookupFile), slog.String("error", err.Error()))
			return
		}

		cnt := seed.SeedLookups(repo, lookups)
		slog.Info("插入部门和办公地点成功", slog.Int("count", cnt))
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
			return
		}

		lookups, err := seed.LoadLookups(lookupFile)
		if err != nil {
			slog.Error("无法读取候选项文件", slog.String("file", lookupFile), slog.String("error", err.Error()))
			return
		}

		cnt := seed.SeedEmployees(repo, n, cfg.Email.CompanyDomain, lookups)
		slog.Info("插入员工成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
