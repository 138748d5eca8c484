package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gradff/backend/config"
	"gradff/backend/internal/api/handler"
	"gradff/backend/internal/api/middleware"
	"gradff/backend/pkg/jwt"
)

// Options 路由依赖
type Options struct {
	JWT       *jwt.Manager
	Blacklist middleware.TokenChecker // 可为 nil
	FilesDir  string                  // 附件根目录，以 cfg.Storage.PublicPath 静态暴露
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, middleware.LoggerOptions{
		BodyLimit:     cfg.Server.BodyLimit,
		QuietPrefixes: []string{"/health", "/metrics", cfg.Storage.PublicPath},
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Storage.PublicPath))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── 附件 ──
	if opts.FilesDir != "" {
		r.Static(cfg.Storage.PublicPath, opts.FilesDir)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开接口：学生提交与查询
		v1.POST("/auth/login", h.Auth.Login)
		v1.POST("/requests", h.Request.CreateRequest)
		v1.GET("/requests/lookup", h.Request.LookupRequest)
		v1.GET("/requests/:id/receipt", h.Request.DownloadReceipt)
		v1.GET("/semesters/current", h.Semester.GetCurrentSemester)
		v1.GET("/meta/statuses", h.Meta.ListStatuses)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(opts.JWT, opts.Blacklist, logger))
		{
			// 认证模块
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/register", h.Auth.Register)

			// 申请模块
			requests := authorized.Group("/requests")
			{
				requests.GET("", h.Request.ListRequests)
				requests.GET("/filters", h.Request.GetFilters)
				requests.PUT("/filters", h.Request.SetFilters)
				requests.DELETE("/filters", h.Request.ResetFilters)
				requests.GET("/:id", h.Request.GetRequest)
				requests.PUT("/:id", h.Request.UpdateRequest)
				requests.DELETE("/:id", h.Request.DeleteRequest)
				requests.POST("/:id/notify", h.Request.NotifyRequest)
			}
			authorized.DELETE("/files", h.Request.DeleteFile)

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.GET("/calendar.ics", h.Semester.DownloadCalendar)
				semesters.GET("/:id", h.Semester.GetSemester)
				semesters.POST("", h.Semester.CreateSemester)
				semesters.PUT("/:id", h.Semester.UpdateSemester)
				semesters.DELETE("/:id", h.Semester.DeleteSemester)
			}

			// 协调员模块
			coordinators := authorized.Group("/coordinators")
			{
				coordinators.GET("", h.Coordinator.ListCoordinators)
				coordinators.GET("/:id", h.Coordinator.GetCoordinator)
				coordinators.POST("", h.Coordinator.CreateCoordinator)
				coordinators.PUT("/:id", h.Coordinator.UpdateCoordinator)
				coordinators.DELETE("/:id", h.Coordinator.DeleteCoordinator)
			}

			// 导出模块
			authorized.GET("/export/requests", h.Export.ExportRequests)
		}
	}

	return r
}
