package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prodline/backend/config"
	"prodline/backend/internal/api/handler"
	"prodline/backend/internal/api/middleware"
	"prodline/backend/pkg/jwt"
	"prodline/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要组织范围认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, 120, time.Minute))
	{
		// 生产订单模块
		orders := v1.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.GET("/:id", h.Order.Get)
			orders.POST("", middleware.RoleAuth("admin", "planner"), h.Order.Create)
			orders.PUT("/:id", middleware.RoleAuth("admin", "planner"), h.Order.Update)
			orders.DELETE("/:id", middleware.RoleAuth("admin"), h.Order.Delete)
			// 状态流转归生产执行协作方，排产核心不写状态
			orders.PUT("/:id/status", middleware.RoleAuth("admin", "planner", "operator"), h.Order.UpdateStatus)
			orders.POST("/:id/allocate", middleware.RoleAuth("admin", "planner"), h.Planning.Allocate)
		}

		// 排产模块
		planning := v1.Group("/planning")
		{
			planning.GET("/schedule", h.Planning.GetSchedule)
			planning.POST("/availability", h.Planning.CheckAvailability)
			planning.GET("/capacity", h.Planning.GetCapacity)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/schedule.xlsx", h.Export.ScheduleXLSX)
			export.GET("/schedule.ics", h.Export.ScheduleICS)
			export.GET("/capacity.xlsx", h.Export.CapacityXLSX)
		}
	}

	return r
}
