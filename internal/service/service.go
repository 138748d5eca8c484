package service

import (
	"time"

	"go.uber.org/zap"

	"gradff/backend/config"
	"gradff/backend/internal/repository"
	"gradff/backend/pkg/blobstore"
	"gradff/backend/pkg/jwt"
	"gradff/backend/pkg/mailer"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Requests     RequestRegistry
	Semesters    SemesterRegistry
	Coordinators CoordinatorRegistry
	Notification NotificationService
	Export       ExportService
}

// Deps 外部依赖
type Deps struct {
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // 可为 nil
	Blobs     blobstore.Store
	Mailer    mailer.Sender
	Location  *time.Location
	Now       func() time.Time // 可为 nil
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, deps Deps, logger *zap.Logger) *Service {
	requests := NewRequestRegistry(deps.Repo, deps.Blobs, cfg.Cache.Size, cfg.Cache.TTL, logger)
	semesters := NewSemesterRegistry(deps.Repo, deps.Location, deps.Now, logger)

	return &Service{
		Auth:         NewAuthService(deps.Repo, deps.JWT, deps.Blacklist, logger),
		Requests:     requests,
		Semesters:    semesters,
		Coordinators: NewCoordinatorRegistry(deps.Repo, logger),
		Notification: NewNotificationService(requests, deps.Mailer, cfg.Mail.Subject, cfg.Server.SiteURL, logger),
		Export:       NewExportService(deps.Repo, requests, semesters, cfg.Server.SiteURL, deps.Location, logger),
	}
}
