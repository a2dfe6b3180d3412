package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/model"
	"prodline/backend/internal/repository"
)

// ── 订单模块业务错误 ──

var (
	ErrBOMNotFound             = errors.New("物料清单不存在")
	ErrBOMInactive             = errors.New("物料清单已停用")
	ErrInvalidPlannedWindow    = errors.New("计划开始时间不得晚于计划结束时间")
	ErrInvalidStatusTransition = errors.New("生产状态流转不合法")
	ErrOrderNotEditable        = errors.New("已完成或已取消的订单不可编辑")
)

// allowedTransitions 生产状态流转表
// 状态流转属于生产执行协作方的职责，排产核心只读状态
var allowedTransitions = map[string][]string{
	model.OrderStatusPlanned:    {model.OrderStatusInProgress, model.OrderStatusCancelled},
	model.OrderStatusInProgress: {model.OrderStatusCompleted, model.OrderStatusCancelled},
	model.OrderStatusCompleted:  {},
	model.OrderStatusCancelled:  {},
}

// OrderService 生产订单业务接口
type OrderService interface {
	Create(ctx context.Context, orgID string, req *dto.CreateOrderRequest, callerID string) (*model.ManufacturingOrder, error)
	Get(ctx context.Context, orgID, orderID string) (*model.ManufacturingOrder, error)
	List(ctx context.Context, orgID string, req *dto.OrderListRequest) ([]model.ManufacturingOrder, int64, error)
	Update(ctx context.Context, orgID, orderID string, req *dto.UpdateOrderRequest, callerID string) (*model.ManufacturingOrder, error)
	UpdateStatus(ctx context.Context, orgID, orderID string, req *dto.UpdateOrderStatusRequest, callerID string) (*model.ManufacturingOrder, error)
	Delete(ctx context.Context, orgID, orderID string, callerID string) error
}

type orderService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOrderService 创建 OrderService 实例
func NewOrderService(repo *repository.Repository, logger *zap.Logger) OrderService {
	return &orderService{repo: repo, logger: logger}
}

func (s *orderService) Create(ctx context.Context, orgID string, req *dto.CreateOrderRequest, callerID string) (*model.ManufacturingOrder, error) {
	if req.PlannedStart != nil && req.PlannedEnd != nil && req.PlannedStart.After(*req.PlannedEnd) {
		return nil, ErrInvalidPlannedWindow
	}

	// BOM 必须属于同一组织且处于启用状态
	bom, err := s.repo.BOM.GetByID(ctx, orgID, req.BOMID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBOMNotFound
		}
		s.logger.Error("查询物料清单失败", zap.String("bom_id", req.BOMID), zap.Error(err))
		return nil, err
	}
	if !bom.IsActive {
		return nil, ErrBOMInactive
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	order := &model.ManufacturingOrder{
		OrgID:               orgID,
		VoucherNo:           req.VoucherNo,
		BOMID:               req.BOMID,
		PlannedQuantity:     req.PlannedQuantity,
		ProductionStatus:    model.OrderStatusPlanned,
		Priority:            priority,
		PlannedStart:        req.PlannedStart,
		PlannedEnd:          req.PlannedEnd,
		EstimatedSetupHours: req.EstimatedSetupHours,
		EstimatedRunHours:   req.EstimatedRunHours,
		Department:          req.Department,
		Notes:               req.Notes,
	}
	order.CreatedBy = &callerID
	order.UpdatedBy = &callerID
	order.Version = 1

	if err := s.repo.Order.Create(ctx, order); err != nil {
		s.logger.Error("创建生产订单失败", zap.String("voucher_no", req.VoucherNo), zap.Error(err))
		return nil, err
	}

	s.logger.Info("生产订单已创建",
		zap.String("order_id", order.OrderID),
		zap.String("voucher_no", order.VoucherNo),
	)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, orgID, orderID string) (*model.ManufacturingOrder, error) {
	order, err := s.repo.Order.GetByID(ctx, orgID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询生产订单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, orgID string, req *dto.OrderListRequest) ([]model.ManufacturingOrder, int64, error) {
	q := &repository.OrderListQuery{
		Status:     req.Status,
		Priority:   req.Priority,
		Department: req.Department,
		Offset:     req.Offset(),
		Limit:      req.PageSize,
	}
	orders, total, err := s.repo.Order.List(ctx, orgID, q)
	if err != nil {
		s.logger.Error("查询订单列表失败", zap.Error(err))
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *orderService) Update(ctx context.Context, orgID, orderID string, req *dto.UpdateOrderRequest, callerID string) (*model.ManufacturingOrder, error) {
	order, err := s.Get(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProductionStatus == model.OrderStatusCompleted || order.ProductionStatus == model.OrderStatusCancelled {
		return nil, ErrOrderNotEditable
	}

	if req.PlannedQuantity != nil {
		order.PlannedQuantity = *req.PlannedQuantity
	}
	if req.Priority != nil {
		order.Priority = *req.Priority
	}
	if req.PlannedStart != nil {
		order.PlannedStart = req.PlannedStart
	}
	if req.PlannedEnd != nil {
		order.PlannedEnd = req.PlannedEnd
	}
	if req.EstimatedSetupHours != nil {
		order.EstimatedSetupHours = *req.EstimatedSetupHours
	}
	if req.EstimatedRunHours != nil {
		order.EstimatedRunHours = *req.EstimatedRunHours
	}
	if req.Department != nil {
		order.Department = *req.Department
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if order.PlannedStart != nil && order.PlannedEnd != nil && order.PlannedStart.After(*order.PlannedEnd) {
		return nil, ErrInvalidPlannedWindow
	}
	order.UpdatedBy = &callerID

	if err := s.repo.Order.Update(ctx, order); err != nil {
		s.logger.Error("更新生产订单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orgID, orderID string, req *dto.UpdateOrderStatusRequest, callerID string) (*model.ManufacturingOrder, error) {
	order, err := s.Get(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.ProductionStatus, req.Status) {
		return nil, ErrInvalidStatusTransition
	}

	now := nowFunc()
	order.ProductionStatus = req.Status
	switch req.Status {
	case model.OrderStatusInProgress:
		if order.ActualStart == nil {
			order.ActualStart = &now
		}
	case model.OrderStatusCompleted:
		if order.ActualEnd == nil {
			order.ActualEnd = &now
		}
		order.CompletionPercentage = 100
	}
	order.UpdatedBy = &callerID

	if err := s.repo.Order.UpdateStatus(ctx, order); err != nil {
		s.logger.Error("生产状态流转失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("生产状态已流转",
		zap.String("order_id", orderID),
		zap.String("status", req.Status),
	)
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, orgID, orderID string, callerID string) error {
	// 先确认订单在调用方组织内存在，保证 NotFound 语义一致
	if _, err := s.Get(ctx, orgID, orderID); err != nil {
		return err
	}
	if err := s.repo.Order.Delete(ctx, orgID, orderID, callerID); err != nil {
		s.logger.Error("删除生产订单失败", zap.String("order_id", orderID), zap.Error(err))
		return err
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
