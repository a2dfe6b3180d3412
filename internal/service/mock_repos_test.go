package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"prodline/backend/internal/model"
	"prodline/backend/internal/repository"
	pkgerrors "prodline/backend/pkg/errors"
)

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	orders map[string]*model.ManufacturingOrder
	nextID int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*model.ManufacturingOrder)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.ManufacturingOrder) error {
	if order.OrderID == "" {
		m.nextID++
		order.OrderID = fmt.Sprintf("order-%02d", m.nextID)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.OrderID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, orgID, orderID string) (*model.ManufacturingOrder, error) {
	o, ok := m.orders[orderID]
	if !ok || o.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, orgID string, q *repository.OrderListQuery) ([]model.ManufacturingOrder, int64, error) {
	var result []model.ManufacturingOrder
	for _, o := range m.sorted() {
		if o.OrgID != orgID {
			continue
		}
		if q.Status != "" && o.ProductionStatus != q.Status {
			continue
		}
		if q.Priority != "" && o.Priority != q.Priority {
			continue
		}
		if q.Department != "" && o.Department != q.Department {
			continue
		}
		result = append(result, *o)
	}
	return result, int64(len(result)), nil
}

func (m *mockOrderRepo) Update(_ context.Context, order *model.ManufacturingOrder) error {
	return m.store(order)
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, order *model.ManufacturingOrder) error {
	return m.store(order)
}

func (m *mockOrderRepo) UpdateBindings(_ context.Context, order *model.ManufacturingOrder) error {
	return m.store(order)
}

// store 模拟乐观锁：版本不一致时返回冲突
func (m *mockOrderRepo) store(order *model.ManufacturingOrder) error {
	existing, ok := m.orders[order.OrderID]
	if !ok || existing.OrgID != order.OrgID {
		return pkgerrors.ErrOptimisticLock
	}
	if existing.Version != order.Version {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version++
	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, orgID, orderID string, _ string) error {
	if o, ok := m.orders[orderID]; ok && o.OrgID == orgID {
		delete(m.orders, orderID)
	}
	return nil
}

func (m *mockOrderRepo) ListBoundInWindow(_ context.Context, orgID, resourceType, resourceID string, windowStart, windowEnd time.Time) ([]model.ManufacturingOrder, error) {
	var result []model.ManufacturingOrder
	for _, o := range m.sorted() {
		if o.OrgID != orgID {
			continue
		}
		if o.ProductionStatus != model.OrderStatusPlanned && o.ProductionStatus != model.OrderStatusInProgress {
			continue
		}
		bound := o.ResourceBinding(resourceType)
		if bound == nil || *bound != resourceID {
			continue
		}
		if o.PlannedStart == nil || o.PlannedEnd == nil {
			continue
		}
		// 半开区间重叠：NOT (qEnd <= oStart OR qStart >= oEnd)
		if !windowEnd.After(*o.PlannedStart) || !o.PlannedEnd.After(windowStart) {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

func (m *mockOrderRepo) ListOpenEndingBy(_ context.Context, orgID string, cutoff time.Time) ([]model.ManufacturingOrder, error) {
	var result []model.ManufacturingOrder
	for _, o := range m.sorted() {
		if o.OrgID != orgID {
			continue
		}
		if o.ProductionStatus != model.OrderStatusPlanned && o.ProductionStatus != model.OrderStatusInProgress {
			continue
		}
		if o.PlannedEnd != nil && o.PlannedEnd.After(cutoff) {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

func (m *mockOrderRepo) ListContainedInWindow(_ context.Context, orgID string, windowStart, windowEnd time.Time, department string) ([]model.ManufacturingOrder, error) {
	var result []model.ManufacturingOrder
	for _, o := range m.sorted() {
		if o.OrgID != orgID {
			continue
		}
		switch o.ProductionStatus {
		case model.OrderStatusPlanned, model.OrderStatusInProgress, model.OrderStatusCompleted:
		default:
			continue
		}
		if o.PlannedStart == nil || o.PlannedEnd == nil {
			continue
		}
		if o.PlannedStart.Before(windowStart) || o.PlannedEnd.After(windowEnd) {
			continue
		}
		if department != "" && o.Department != department {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

// sorted 按订单 ID 升序返回，保证遍历顺序确定（map 无序）
func (m *mockOrderRepo) sorted() []*model.ManufacturingOrder {
	ids := make([]string, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*model.ManufacturingOrder, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.orders[id])
	}
	return result
}

// ── Mock BOMRepository ──

type mockBOMRepo struct {
	boms map[string]*model.BillOfMaterials
}

func newMockBOMRepo() *mockBOMRepo {
	return &mockBOMRepo{boms: make(map[string]*model.BillOfMaterials)}
}

func (m *mockBOMRepo) GetByID(_ context.Context, orgID, bomID string) (*model.BillOfMaterials, error) {
	b, ok := m.boms[bomID]
	if !ok || b.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (m *mockBOMRepo) List(_ context.Context, orgID string, activeOnly bool, _, _ int) ([]model.BillOfMaterials, int64, error) {
	var result []model.BillOfMaterials
	for _, b := range m.boms {
		if b.OrgID != orgID {
			continue
		}
		if activeOnly && !b.IsActive {
			continue
		}
		result = append(result, *b)
	}
	return result, int64(len(result)), nil
}

// ── 测试辅助 ──

type testRepos struct {
	order *mockOrderRepo
	bom   *mockBOMRepo
}

func newTestRepos() *testRepos {
	return &testRepos{order: newMockOrderRepo(), bom: newMockBOMRepo()}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{Order: r.order, BOM: r.bom}
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }
