package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"prodline/backend/internal/service"
)

// Handler 所有 HTTP 处理器的聚合入口
type Handler struct {
	Order    *OrderHandler
	Planning *PlanningHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Order:    NewOrderHandler(svc.Order),
		Planning: NewPlanningHandler(svc.Allocation, svc.Capacity, svc.Planning),
		Export:   NewExportHandler(svc.Export),
	}
}

// orgID 取当前请求的组织范围（JWTAuth 注入）
func orgID(c *gin.Context) string {
	return c.GetString("org_id")
}

// callerID 取当前请求的用户标识（JWTAuth 注入）
func callerID(c *gin.Context) string {
	return c.GetString("user_id")
}

// parseTimeParam 解析时间查询参数，支持 RFC3339 与日期两种格式
func parseTimeParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
