package service

import (
	"time"

	"go.uber.org/zap"

	"prodline/backend/internal/repository"
)

// nowFunc 可注入时钟，仅供状态流转写入 actual 时间戳使用；
// 排产核心各操作的 now 一律由调用方显式传入
var nowFunc = time.Now

// Service 所有 Service 的聚合入口
type Service struct {
	Order      OrderService
	Allocation AllocationService
	Capacity   CapacityService
	Planning   PlanningService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, logger *zap.Logger) *Service {
	planning := NewPlanningService(repo, logger)
	capacity := NewCapacityService(repo, logger)
	return &Service{
		Order:      NewOrderService(repo, logger),
		Allocation: NewAllocationService(repo, logger),
		Capacity:   capacity,
		Planning:   planning,
		Export:     NewExportService(planning, capacity, logger),
	}
}
