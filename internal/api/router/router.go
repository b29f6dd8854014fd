package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"maces/backend/config"
	"maces/backend/internal/api/handler"
	"maces/backend/internal/api/middleware"
	"maces/backend/pkg/jwt"
	"maces/backend/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时不检查会话黑名单，登录不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db))

	// ── 认证（无需会话）──
	r.POST("/login",
		middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger),
		h.Auth.Login,
	)

	// ── 需要会话的路由 ──
	authorized := r.Group("")
	authorized.Use(middleware.SessionAuth(jwtMgr, rdb, cfg.Auth.Cookie.Name, logger))
	{
		authorized.POST("/logout", h.Auth.Logout)

		authorized.GET("/is_park_officer", h.Park.IsParkOfficer)
		authorized.GET("/get_classes", h.Park.GetClasses)

		authorized.GET("/attendance", h.Attendance.List)
		authorized.POST("/attendance", h.Attendance.Record)
		authorized.POST("/submit_attendance", h.Attendance.Submit)

		authorized.GET("/attendance/export", h.Export.ExportParkDay)
		authorized.GET("/attendance/calendar", h.Export.ExportCalendar)
	}

	return r
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
