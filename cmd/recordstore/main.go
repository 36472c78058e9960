package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/recordstore"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法加载配置文件", "error", err)
		return
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With("resources", cfg.RecordStore.Resources)
	slog.SetDefault(logger)

	/**********************************************
	 * 连接数据库
	 **********************************************/
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

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(); err != nil {
		logger.Error("无法创建数据表", "error", err)
		return
	}

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	// 同一个程序按 RECORDSTORE_RESOURCES 分别扮演基本信息库和详细信息库
	server := recordstore.NewServer(repo, cfg.RecordStore.Resources, cfg.RecordStore.SuggestionLimit)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.RecordStore.Port),
		Handler:      server.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动记录库...", "port", cfg.RecordStore.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动记录库", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("正在关闭记录库...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭记录库失败", "error", err)
	}
	logger.Info("记录库已成功关闭")
}
