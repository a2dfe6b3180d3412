package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"prodline/backend/internal/model"
	pkgerrors "prodline/backend/pkg/errors"
)

// OrderListQuery 订单列表查询条件
type OrderListQuery struct {
	Status     string
	Priority   string
	Department string
	Offset     int
	Limit      int
}

// OrderRepository 生产订单数据访问接口
// 所有查询以 orgID 为租户边界，越组织访问在 WHERE 层面被排除
type OrderRepository interface {
	Create(ctx context.Context, order *model.ManufacturingOrder) error
	GetByID(ctx context.Context, orgID, orderID string) (*model.ManufacturingOrder, error)
	List(ctx context.Context, orgID string, q *OrderListQuery) ([]model.ManufacturingOrder, int64, error)
	// Update 更新计划字段（数量/优先级/计划窗口/工时估算），乐观锁
	Update(ctx context.Context, order *model.ManufacturingOrder) error
	// UpdateStatus 生产状态流转（生产执行协作方专用），乐观锁
	UpdateStatus(ctx context.Context, order *model.ManufacturingOrder) error
	// UpdateBindings 仅写资源绑定四列，乐观锁保证同一订单上的分配串行化
	UpdateBindings(ctx context.Context, order *model.ManufacturingOrder) error
	Delete(ctx context.Context, orgID, orderID string, deletedBy string) error

	// ListBoundInWindow 查询组织内状态为 planned/in_progress、
	// 绑定了指定资源且计划窗口与查询窗口按半开区间重叠的订单
	ListBoundInWindow(ctx context.Context, orgID, resourceType, resourceID string, windowStart, windowEnd time.Time) ([]model.ManufacturingOrder, error)
	// ListOpenEndingBy 查询开放订单（planned/in_progress），
	// 计划结束时间早于等于 cutoff 或未设置
	ListOpenEndingBy(ctx context.Context, orgID string, cutoff time.Time) ([]model.ManufacturingOrder, error)
	// ListContainedInWindow 查询计划窗口完整落在报告窗口内的订单
	// （planned/in_progress/completed），可按部门过滤
	ListContainedInWindow(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) ([]model.ManufacturingOrder, error)
}

// resourceColumn 资源类型到订单列的映射
func resourceColumn(resourceType string) (string, error) {
	switch resourceType {
	case model.ResourceTypeOperator:
		return "assigned_operator", nil
	case model.ResourceTypeSupervisor:
		return "assigned_supervisor", nil
	case model.ResourceTypeMachine:
		return "machine_id", nil
	case model.ResourceTypeWorkstation:
		return "workstation_id", nil
	}
	return "", fmt.Errorf("未知的资源类型: %q", resourceType)
}

// ── Order Repository 实现 ──

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.ManufacturingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) GetByID(ctx context.Context, orgID, orderID string) (*model.ManufacturingOrder, error) {
	var order model.ManufacturingOrder
	err := r.db.WithContext(ctx).
		Preload("BOM").
		Where("org_id = ? AND order_id = ?", orgID, orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, orgID string, q *OrderListQuery) ([]model.ManufacturingOrder, int64, error) {
	var orders []model.ManufacturingOrder
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ManufacturingOrder{}).
		Where("org_id = ?", orgID)
	if q.Status != "" {
		db = db.Where("production_status = ?", q.Status)
	}
	if q.Priority != "" {
		db = db.Where("priority = ?", q.Priority)
	}
	if q.Department != "" {
		db = db.Where("department = ?", q.Department)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(q.Offset).Limit(q.Limit).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) Update(ctx context.Context, order *model.ManufacturingOrder) error {
	oldVersion := order.Version
	result := r.db.WithContext(ctx).
		Model(order).
		Where("org_id = ? AND order_id = ? AND version = ?", order.OrgID, order.OrderID, oldVersion).
		Updates(map[string]interface{}{
			"planned_quantity":      order.PlannedQuantity,
			"priority":              order.Priority,
			"planned_start":         order.PlannedStart,
			"planned_end":           order.PlannedEnd,
			"estimated_setup_hours": order.EstimatedSetupHours,
			"estimated_run_hours":   order.EstimatedRunHours,
			"department":            order.Department,
			"notes":                 order.Notes,
			"updated_by":            order.UpdatedBy,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version = oldVersion + 1
	return nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *model.ManufacturingOrder) error {
	oldVersion := order.Version
	result := r.db.WithContext(ctx).
		Model(order).
		Where("org_id = ? AND order_id = ? AND version = ?", order.OrgID, order.OrderID, oldVersion).
		Updates(map[string]interface{}{
			"production_status":     order.ProductionStatus,
			"actual_start":          order.ActualStart,
			"actual_end":            order.ActualEnd,
			"completion_percentage": order.CompletionPercentage,
			"updated_by":            order.UpdatedBy,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version = oldVersion + 1
	return nil
}

func (r *orderRepo) UpdateBindings(ctx context.Context, order *model.ManufacturingOrder) error {
	oldVersion := order.Version
	result := r.db.WithContext(ctx).
		Model(order).
		Where("org_id = ? AND order_id = ? AND version = ?", order.OrgID, order.OrderID, oldVersion).
		Updates(map[string]interface{}{
			"assigned_operator":   order.AssignedOperator,
			"assigned_supervisor": order.AssignedSupervisor,
			"machine_id":          order.MachineID,
			"workstation_id":      order.WorkstationID,
			"updated_by":          order.UpdatedBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version = oldVersion + 1
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, orgID, orderID string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Where("org_id = ? AND order_id = ?", orgID, orderID).
		Delete(&model.ManufacturingOrder{VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{DeletedBy: &deletedBy}}}).Error
}

func (r *orderRepo) ListBoundInWindow(ctx context.Context, orgID, resourceType, resourceID string, windowStart, windowEnd time.Time) ([]model.ManufacturingOrder, error) {
	col, err := resourceColumn(resourceType)
	if err != nil {
		return nil, err
	}

	var orders []model.ManufacturingOrder
	err = r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("production_status IN ?", []string{model.OrderStatusPlanned, model.OrderStatusInProgress}).
		Where(col+" = ?", resourceID).
		Where("planned_start IS NOT NULL AND planned_end IS NOT NULL").
		// 半开区间 [start, end) 重叠判定：首尾相接不算冲突
		Where("NOT (? <= planned_start OR ? >= planned_end)", windowEnd, windowStart).
		Order("planned_start ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListOpenEndingBy(ctx context.Context, orgID string, cutoff time.Time) ([]model.ManufacturingOrder, error) {
	var orders []model.ManufacturingOrder
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("production_status IN ?", []string{model.OrderStatusPlanned, model.OrderStatusInProgress}).
		Where("planned_end IS NULL OR planned_end <= ?", cutoff).
		Order("order_id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListContainedInWindow(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) ([]model.ManufacturingOrder, error) {
	db := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("production_status IN ?", []string{
			model.OrderStatusPlanned, model.OrderStatusInProgress, model.OrderStatusCompleted,
		}).
		// 完整包含：部分重叠的订单不计入（有意的简化口径）
		Where("planned_start IS NOT NULL AND planned_end IS NOT NULL").
		Where("planned_start >= ? AND planned_end <= ?", windowStart, windowEnd)
	if department != "" {
		db = db.Where("department = ?", department)
	}

	var orders []model.ManufacturingOrder
	err := db.Order("planned_start ASC").Find(&orders).Error
	return orders, err
}
