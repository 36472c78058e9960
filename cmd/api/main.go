package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/directory"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/drafts"
	"github.com/hr-onboarding/employee-wizard/backend/internal/handler"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/mailer"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/recordstore"
	"github.com/hr-onboarding/employee-wizard/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jackc/pgx/v5/pgconn"
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

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.JWT.Secret == "" {
		logger.Error("未设置 JWT_SECRET")
		return
	}

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

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(); err != nil {
		logger.Error("无法创建数据表", "error", err)
		return
	}

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("无法生成初始管理员密码哈希", "error", err)
		return
	}
	initialAdmin := &domain.Operator{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}
	if err := repo.CreateOperator(initialAdmin); err != nil {
		var pgErr *pgconn.PgError
		// operators_username_key 冲突说明初始管理员已经存在
		if !errors.As(err, &pgErr) || pgErr.ConstraintName != "operators_username_key" {
			logger.Error("无法创建初始管理员", "error", err)
			return
		}
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	if _, err := mailer.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	// redis 只用于草稿，连不上时草稿功能降级，服务照常启动
	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.OperationTimeout)*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("无法连接到 redis，草稿功能不可用", "error", err)
	}
	pingCancel()

	/**********************************************
	 * 创建记录库客户端和提交流程
	 **********************************************/
	records := recordstore.New(
		cfg.RecordStore.BasicInfoURL,
		cfg.RecordStore.DetailsURL,
		time.Duration(cfg.RecordStore.RequestTimeout)*time.Second,
	)
	pipeline := onboarding.New(records, time.Duration(cfg.Onboarding.Pacing)*time.Millisecond)
	dir := directory.New(records, cfg.Onboarding.PageSize)
	draftStore := drafts.New(
		rdb,
		time.Duration(cfg.Draft.Expiration)*time.Hour,
		time.Duration(cfg.Redis.OperationTimeout)*time.Second,
	)
	publisher := mailer.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, records, pipeline, dir, draftStore, publisher)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port, "pacing", pipeline.Pacing())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
