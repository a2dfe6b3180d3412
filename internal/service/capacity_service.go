package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/model"
	"prodline/backend/internal/repository"
)

// CapacityService 产能利用率报告业务接口
//
// 口径说明：
//   - 仅统计计划窗口完整落在报告窗口内的订单，部分重叠不计入
//   - 可用工时 = 窗口天数 × 每日 8 小时，不按资源数量展开
type CapacityService interface {
	Utilization(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) (*dto.CapacityReport, error)
}

type capacityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCapacityService 创建 CapacityService 实例
func NewCapacityService(repo *repository.Repository, logger *zap.Logger) CapacityService {
	return &capacityService{repo: repo, logger: logger}
}

func (s *capacityService) Utilization(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) (*dto.CapacityReport, error) {
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidWindow
	}

	orders, err := s.repo.Order.ListContainedInWindow(ctx, orgID, windowStart, windowEnd, department)
	if err != nil {
		s.logger.Error("查询窗口内订单失败", zap.Error(err))
		return nil, err
	}

	var plannedHours, actualHours float64
	counts := map[string]int{
		model.OrderStatusPlanned:    0,
		model.OrderStatusInProgress: 0,
		model.OrderStatusCompleted:  0,
	}
	for i := range orders {
		o := &orders[i]
		plannedHours += o.EstimatedHours()
		// 仍处于 planned 的订单不贡献实际工时
		if o.ProductionStatus != model.OrderStatusPlanned {
			actualHours += o.ActualHours()
		}
		counts[o.ProductionStatus]++
	}

	windowDays := int(math.Ceil(windowEnd.Sub(windowStart).Hours() / 24))
	availableHours := float64(windowDays * HoursPerWorkday)

	var utilizationRate, efficiency float64
	if availableHours > 0 {
		utilizationRate = plannedHours / availableHours * 100
	}
	if plannedHours > 0 {
		efficiency = actualHours / plannedHours * 100
	}

	return &dto.CapacityReport{
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		WindowDays:      windowDays,
		Department:      department,
		PlannedHours:    plannedHours,
		ActualHours:     actualHours,
		AvailableHours:  availableHours,
		UtilizationRate: utilizationRate,
		Efficiency:      efficiency,
		TotalOrders:     len(orders),
		OrderCounts:     counts,
	}, nil
}
