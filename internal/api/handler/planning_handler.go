package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/service"
	pkgerrors "prodline/backend/pkg/errors"
	"prodline/backend/pkg/response"
)

// defaultHorizonDays 未指定排产视野时的默认天数
const defaultHorizonDays = 30

// PlanningHandler 排产与资源分配模块 HTTP 处理器
type PlanningHandler struct {
	allocationSvc service.AllocationService
	capacitySvc   service.CapacityService
	planningSvc   service.PlanningService
}

// NewPlanningHandler 创建 PlanningHandler
func NewPlanningHandler(
	allocationSvc service.AllocationService,
	capacitySvc service.CapacityService,
	planningSvc service.PlanningService,
) *PlanningHandler {
	return &PlanningHandler{
		allocationSvc: allocationSvc,
		capacitySvc:   capacitySvc,
		planningSvc:   planningSvc,
	}
}

// GetSchedule 获取建议排程
// GET /api/v1/planning/schedule?horizon_days=30
func (h *PlanningHandler) GetSchedule(c *gin.Context) {
	horizonDays := defaultHorizonDays
	if v := c.Query("horizon_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, 13001, "horizon_days 必须为整数")
			return
		}
		horizonDays = n
	}

	items, err := h.planningSvc.ProjectSchedule(c.Request.Context(), orgID(c), horizonDays, time.Now())
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// CheckAvailability 检查资源可用性
// POST /api/v1/planning/availability
func (h *PlanningHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	result, err := h.allocationSvc.CheckAvailability(c.Request.Context(), orgID(c), &req)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// Allocate 向订单分配资源
// POST /api/v1/orders/:id/allocate
func (h *PlanningHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	result, err := h.allocationSvc.Allocate(c.Request.Context(), orgID(c), c.Param("id"), &req, callerID(c))
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// GetCapacity 获取产能利用率报告
// GET /api/v1/planning/capacity?window_start=&window_end=&department=
func (h *PlanningHandler) GetCapacity(c *gin.Context) {
	windowStart, err := parseTimeParam(c.Query("window_start"))
	if err != nil {
		response.BadRequest(c, 13001, "window_start 格式无效")
		return
	}
	windowEnd, err := parseTimeParam(c.Query("window_end"))
	if err != nil {
		response.BadRequest(c, 13001, "window_end 格式无效")
		return
	}

	report, err := h.capacitySvc.Utilization(c.Request.Context(), orgID(c), windowStart, windowEnd, c.Query("department"))
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, report)
}

// handlePlanningError 排产模块错误映射
func (h *PlanningHandler) handlePlanningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 13002, err.Error())
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidResourceType),
		errors.Is(err, service.ErrNoResourceSupplied),
		errors.Is(err, service.ErrInvalidHorizon):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Error(c, http.StatusConflict, 13004, err.Error())
	default:
		response.InternalError(c)
	}
}
