package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prodline/backend/internal/service"
	"prodline/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScheduleXLSX 导出建议排程 Excel
// GET /api/v1/export/schedule.xlsx?horizon_days=30
func (h *ExportHandler) ScheduleXLSX(c *gin.Context) {
	horizonDays, ok := h.horizonDays(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), orgID(c), horizonDays, time.Now())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ScheduleICS 导出建议排程 iCalendar
// GET /api/v1/export/schedule.ics?horizon_days=30
func (h *ExportHandler) ScheduleICS(c *gin.Context) {
	horizonDays, ok := h.horizonDays(c)
	if !ok {
		return
	}

	content, filename, err := h.exportSvc.ExportScheduleICS(c.Request.Context(), orgID(c), horizonDays, time.Now())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(content))
}

// CapacityXLSX 导出产能报告 Excel
// GET /api/v1/export/capacity.xlsx?window_start=&window_end=&department=
func (h *ExportHandler) CapacityXLSX(c *gin.Context) {
	windowStart, err := parseTimeParam(c.Query("window_start"))
	if err != nil {
		response.BadRequest(c, 14001, "window_start 格式无效")
		return
	}
	windowEnd, err := parseTimeParam(c.Query("window_end"))
	if err != nil {
		response.BadRequest(c, 14001, "window_end 格式无效")
		return
	}

	buf, filename, err := h.exportSvc.ExportCapacity(c.Request.Context(), orgID(c), windowStart, windowEnd, c.Query("department"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) horizonDays(c *gin.Context) (int, bool) {
	horizonDays := defaultHorizonDays
	if v := c.Query("horizon_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, 14001, "horizon_days 必须为整数")
			return 0, false
		}
		horizonDays = n
	}
	return horizonDays, true
}

// handleExportError 导出模块错误映射
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoItems):
		response.NotFound(c, 14002, err.Error())
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidHorizon):
		response.BadRequest(c, 14003, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
