package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/service"
	pkgerrors "prodline/backend/pkg/errors"
	"prodline/backend/pkg/response"
)

// OrderHandler 生产订单模块 HTTP 处理器
type OrderHandler struct {
	orderSvc service.OrderService
}

// NewOrderHandler 创建 OrderHandler
func NewOrderHandler(orderSvc service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// Create 创建生产订单
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.Create(c.Request.Context(), orgID(c), &req, callerID(c))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.Created(c, order)
}

// Get 获取生产订单
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderSvc.Get(c.Request.Context(), orgID(c), c.Param("id"))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// List 查询订单列表
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	orders, total, err := h.orderSvc.List(c.Request.Context(), orgID(c), &req)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OKPage(c, orders, total, req.Page, req.PageSize)
}

// Update 更新订单计划字段
// PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.Update(c.Request.Context(), orgID(c), c.Param("id"), &req, callerID(c))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// UpdateStatus 生产状态流转
// PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.UpdateStatus(c.Request.Context(), orgID(c), c.Param("id"), &req, callerID(c))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Delete 删除生产订单
// DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orderSvc.Delete(c.Request.Context(), orgID(c), c.Param("id"), callerID(c)); err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleOrderError 订单模块错误映射
func (h *OrderHandler) handleOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 12002, err.Error())
	case errors.Is(err, service.ErrBOMNotFound),
		errors.Is(err, service.ErrBOMInactive),
		errors.Is(err, service.ErrInvalidPlannedWindow),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrOrderNotEditable):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Error(c, http.StatusConflict, 12004, err.Error())
	default:
		response.InternalError(c)
	}
}
