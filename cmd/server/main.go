package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gradff/backend/config"
	"gradff/backend/internal/api/handler"
	"gradff/backend/internal/api/middleware"
	"gradff/backend/internal/api/router"
	"gradff/backend/internal/repository"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/blobstore"
	"gradff/backend/pkg/database"
	"gradff/backend/pkg/jwt"
	applogger "gradff/backend/pkg/logger"
	"gradff/backend/pkg/mailer"
	"gradff/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("GRADFF_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("mail_provider", cfg.Mail.Provider),
	)

	loc, err := cfg.Server.Location()
	if err != nil {
		logger.Fatal("时区无效", zap.Error(err))
	}

	// 3. 连接数据库（带退避重试）并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，注销仅由客户端丢弃 Token）
	var (
		blacklist service.TokenBlacklist
		checker   middleware.TokenChecker
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单功能将不可用", zap.Error(err))
		rdb = nil
	} else {
		blacklist, checker = rdb, rdb
	}

	// 5. 附件存储与邮件通道
	publicBase := strings.TrimRight(cfg.Server.BaseURL, "/") + cfg.Storage.PublicPath
	files, err := blobstore.NewFileStore(cfg.Storage.DataDir, publicBase)
	if err != nil {
		logger.Fatal("初始化附件存储失败", zap.Error(err))
	}
	sender := newMailer(&cfg.Mail, logger)

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, service.Deps{
		Repo:      repo,
		JWT:       jwtMgr,
		Blacklist: blacklist,
		Blobs:     files,
		Mailer:    sender,
		Location:  loc,
	}, logger)
	h := handler.NewHandler(svc)

	// 预热学期列表，失败不影响启动
	if _, err := svc.Semesters.Load(context.Background()); err != nil {
		logger.Warn("预加载学期失败", zap.Error(err))
	}

	// 7. 初始化路由
	engine := router.Setup(cfg, h, router.Options{
		JWT:       jwtMgr,
		Blacklist: checker,
		FilesDir:  files.DataDir(),
	}, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  60 * time.Second, // 附件随申请一起上传
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// newMailer 按配置选择邮件通道；console 仅记录日志，用于开发环境
func newMailer(cfg *config.MailConfig, logger *zap.Logger) mailer.Sender {
	if cfg.Provider == "sendgrid" {
		return mailer.NewSendgridSender(cfg.SendgridAPIKey, cfg.FromName, cfg.From)
	}
	return mailer.NewConsoleSender(logger)
}
