package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/model"
	"prodline/backend/internal/repository"
)

// ── 资源分配模块业务错误 ──

var (
	ErrOrderNotFound       = errors.New("生产订单不存在")
	ErrInvalidWindow       = errors.New("时间窗口无效：结束时间必须晚于开始时间")
	ErrInvalidResourceType = errors.New("资源类型无效")
	ErrNoResourceSupplied  = errors.New("未提供任何资源字段")
)

// AllocationService 资源冲突检测与分配业务接口
//
// 设计说明：
//   - 检测到的冲突是提示数据而非错误：分配允许带冲突覆盖写入，
//     与车间实际的人工协调习惯一致（允许双占用，大声警告）
//   - 冲突扫描每次全量重读候选集，不维护预订索引，
//     新鲜度窗口等于一次查询往返
type AllocationService interface {
	// CheckAvailability 检查资源在时间窗口内的可用性，返回完整冲突集
	CheckAvailability(ctx context.Context, orgID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
	// Allocate 向订单提交资源绑定，冲突报告随写入结果一并返回
	Allocate(ctx context.Context, orgID, orderID string, req *dto.AllocateRequest, callerID string) (*dto.AllocationResult, error)
}

type allocationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAllocationService 创建 AllocationService 实例
func NewAllocationService(repo *repository.Repository, logger *zap.Logger) AllocationService {
	return &allocationService{repo: repo, logger: logger}
}

func (s *allocationService) CheckAvailability(ctx context.Context, orgID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if !model.ValidResourceType(req.ResourceType) {
		return nil, ErrInvalidResourceType
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, ErrInvalidWindow
	}

	conflicts, err := s.scanConflicts(ctx, orgID, req.ResourceType, req.ResourceID, req.WindowStart, req.WindowEnd, "")
	if err != nil {
		return nil, err
	}

	return &dto.AvailabilityResponse{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Available:    len(conflicts) == 0,
		Conflicts:    conflicts,
	}, nil
}

// scanConflicts 扫描资源在窗口内的重叠预订，excludeOrderID 用于排除订单自身
func (s *allocationService) scanConflicts(ctx context.Context, orgID, resourceType, resourceID string, windowStart, windowEnd time.Time, excludeOrderID string) ([]dto.OrderRef, error) {
	orders, err := s.repo.Order.ListBoundInWindow(ctx, orgID, resourceType, resourceID, windowStart, windowEnd)
	if err != nil {
		s.logger.Error("查询资源预订失败",
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return nil, err
	}

	conflicts := make([]dto.OrderRef, 0, len(orders))
	for _, o := range orders {
		if o.OrderID == excludeOrderID {
			continue
		}
		conflicts = append(conflicts, dto.OrderRef{
			OrderID:      o.OrderID,
			VoucherNo:    o.VoucherNo,
			PlannedStart: o.PlannedStart,
			PlannedEnd:   o.PlannedEnd,
		})
	}
	return conflicts, nil
}

func (s *allocationService) Allocate(ctx context.Context, orgID, orderID string, req *dto.AllocateRequest, callerID string) (*dto.AllocationResult, error) {
	if req.Operator == nil && req.Supervisor == nil && req.MachineID == nil && req.WorkstationID == nil {
		return nil, ErrNoResourceSupplied
	}

	order, err := s.repo.Order.GetByID(ctx, orgID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询生产订单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	check := true
	if req.CheckAvailability != nil {
		check = *req.CheckAvailability
	}

	// 请求字段 → 资源类型
	requested := []struct {
		resourceType string
		resourceID   *string
	}{
		{model.ResourceTypeOperator, req.Operator},
		{model.ResourceTypeSupervisor, req.Supervisor},
		{model.ResourceTypeMachine, req.MachineID},
		{model.ResourceTypeWorkstation, req.WorkstationID},
	}

	conflicts := make(map[string][]dto.OrderRef)
	if check && order.PlannedStart != nil && order.PlannedEnd != nil {
		for _, rq := range requested {
			if rq.resourceID == nil {
				continue
			}
			refs, err := s.scanConflicts(ctx, orgID, rq.resourceType, *rq.resourceID,
				*order.PlannedStart, *order.PlannedEnd, order.OrderID)
			if err != nil {
				return nil, err
			}
			if len(refs) > 0 {
				conflicts[rq.resourceType] = refs
			}
		}
	}

	// 无论是否冲突均写入绑定：冲突只提示，不拦截
	if req.Operator != nil {
		order.AssignedOperator = req.Operator
	}
	if req.Supervisor != nil {
		order.AssignedSupervisor = req.Supervisor
	}
	if req.MachineID != nil {
		order.MachineID = req.MachineID
	}
	if req.WorkstationID != nil {
		order.WorkstationID = req.WorkstationID
	}
	order.UpdatedBy = &callerID

	if err := s.repo.Order.UpdateBindings(ctx, order); err != nil {
		s.logger.Error("写入资源绑定失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	if len(conflicts) > 0 {
		s.logger.Warn("资源分配存在冲突，已按覆盖策略写入",
			zap.String("order_id", orderID),
			zap.Int("conflict_types", len(conflicts)),
		)
	}

	return &dto.AllocationResult{
		OrderID:   order.OrderID,
		VoucherNo: order.VoucherNo,
		Bindings: dto.ResourceBindings{
			Operator:      order.AssignedOperator,
			Supervisor:    order.AssignedSupervisor,
			MachineID:     order.MachineID,
			WorkstationID: order.WorkstationID,
		},
		Conflicts:    conflicts,
		HasConflicts: len(conflicts) > 0,
	}, nil
}
