package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/model"
	"prodline/backend/internal/service"
	pkgerrors "prodline/backend/pkg/errors"
	"prodline/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock OrderService ──

type mockOrderService struct {
	createResult *model.ManufacturingOrder
	createErr    error
	getResult    *model.ManufacturingOrder
	getErr       error
	listResult   []model.ManufacturingOrder
	listTotal    int64
	listErr      error
	updateResult *model.ManufacturingOrder
	updateErr    error
	statusResult *model.ManufacturingOrder
	statusErr    error
	deleteErr    error
}

func (m *mockOrderService) Create(_ context.Context, _ string, _ *dto.CreateOrderRequest, _ string) (*model.ManufacturingOrder, error) {
	return m.createResult, m.createErr
}
func (m *mockOrderService) Get(_ context.Context, _, _ string) (*model.ManufacturingOrder, error) {
	return m.getResult, m.getErr
}
func (m *mockOrderService) List(_ context.Context, _ string, _ *dto.OrderListRequest) ([]model.ManufacturingOrder, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockOrderService) Update(_ context.Context, _, _ string, _ *dto.UpdateOrderRequest, _ string) (*model.ManufacturingOrder, error) {
	return m.updateResult, m.updateErr
}
func (m *mockOrderService) UpdateStatus(_ context.Context, _, _ string, _ *dto.UpdateOrderStatusRequest, _ string) (*model.ManufacturingOrder, error) {
	return m.statusResult, m.statusErr
}
func (m *mockOrderService) Delete(_ context.Context, _, _ string, _ string) error {
	return m.deleteErr
}

// ── Mock AllocationService ──

type mockAllocationService struct {
	availabilityResult *dto.AvailabilityResponse
	availabilityErr    error
	allocateResult     *dto.AllocationResult
	allocateErr        error
}

func (m *mockAllocationService) CheckAvailability(_ context.Context, _ string, _ *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	return m.availabilityResult, m.availabilityErr
}
func (m *mockAllocationService) Allocate(_ context.Context, _, _ string, _ *dto.AllocateRequest, _ string) (*dto.AllocationResult, error) {
	return m.allocateResult, m.allocateErr
}

// ── Mock CapacityService ──

type mockCapacityService struct {
	result *dto.CapacityReport
	err    error
}

func (m *mockCapacityService) Utilization(_ context.Context, _ string, _, _ time.Time, _ string) (*dto.CapacityReport, error) {
	return m.result, m.err
}

// ── Mock PlanningService ──

type mockPlanningService struct {
	result []dto.ScheduleItem
	err    error
}

func (m *mockPlanningService) ProjectSchedule(_ context.Context, _ string, _ int, _ time.Time) ([]dto.ScheduleItem, error) {
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	ics      string
	filename string
	err      error
}

func (m *mockExportService) ExportSchedule(_ context.Context, _ string, _ int, _ time.Time) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportScheduleICS(_ context.Context, _ string, _ int, _ time.Time) (string, string, error) {
	return m.ics, m.filename, m.err
}
func (m *mockExportService) ExportCapacity(_ context.Context, _ string, _, _ time.Time, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("org_id", "test-org-id")
	c.Set("role", "planner")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(register func(r *gin.Engine), req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := gin.New()
	register(r)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// OrderHandler Tests
// ═══════════════════════════════════════════════════════════

func TestOrderHandler_Create_Success(t *testing.T) {
	order := &model.ManufacturingOrder{OrderID: "order-1", VoucherNo: "MO-2026-001"}
	h := NewOrderHandler(&mockOrderService{createResult: order})

	req := httptest.NewRequest("POST", "/orders", jsonBody(dto.CreateOrderRequest{
		VoucherNo:       "MO-2026-001",
		BOMID:           "3f0d8c1a-9d2e-4f6b-8a51-b7c2d4e9a001",
		PlannedQuantity: 50,
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders", func(c *gin.Context) { setAuth(c); h.Create(c) })
	}, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestOrderHandler_Create_BadJSON(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{})

	req := httptest.NewRequest("POST", "/orders", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders", func(c *gin.Context) { setAuth(c); h.Create(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

func TestOrderHandler_Create_BOMNotFound(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{createErr: service.ErrBOMNotFound})

	req := httptest.NewRequest("POST", "/orders", jsonBody(dto.CreateOrderRequest{
		VoucherNo:       "MO-2026-001",
		BOMID:           "3f0d8c1a-9d2e-4f6b-8a51-b7c2d4e9a001",
		PlannedQuantity: 50,
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders", func(c *gin.Context) { setAuth(c); h.Create(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12003 {
		t.Errorf("expected error code 12003, got %d", resp.Code)
	}
}

func TestOrderHandler_Get_NotFound(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{getErr: service.ErrOrderNotFound})

	req := httptest.NewRequest("GET", "/orders/order-x", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/orders/:id", func(c *gin.Context) { setAuth(c); h.Get(c) })
	}, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12002 {
		t.Errorf("expected error code 12002, got %d", resp.Code)
	}
}

func TestOrderHandler_Update_OptimisticLock(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{updateErr: pkgerrors.ErrOptimisticLock})

	req := httptest.NewRequest("PUT", "/orders/order-1", jsonBody(dto.UpdateOrderRequest{}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.PUT("/orders/:id", func(c *gin.Context) { setAuth(c); h.Update(c) })
	}, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12004 {
		t.Errorf("expected error code 12004, got %d", resp.Code)
	}
}

func TestOrderHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{statusErr: service.ErrInvalidStatusTransition})

	req := httptest.NewRequest("PUT", "/orders/order-1/status", jsonBody(dto.UpdateOrderStatusRequest{
		Status: model.OrderStatusCompleted,
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.PUT("/orders/:id/status", func(c *gin.Context) { setAuth(c); h.UpdateStatus(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestOrderHandler_List_Success(t *testing.T) {
	h := NewOrderHandler(&mockOrderService{
		listResult: []model.ManufacturingOrder{{OrderID: "order-1"}},
		listTotal:  1,
	})

	req := httptest.NewRequest("GET", "/orders?page=1&page_size=20", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/orders", func(c *gin.Context) { setAuth(c); h.List(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PlanningHandler Tests
// ═══════════════════════════════════════════════════════════

func newPlanningHandler(alloc *mockAllocationService, capSvc *mockCapacityService, plan *mockPlanningService) *PlanningHandler {
	if alloc == nil {
		alloc = &mockAllocationService{}
	}
	if capSvc == nil {
		capSvc = &mockCapacityService{}
	}
	if plan == nil {
		plan = &mockPlanningService{}
	}
	return NewPlanningHandler(alloc, capSvc, plan)
}

func TestPlanningHandler_GetSchedule_Success(t *testing.T) {
	h := newPlanningHandler(nil, nil, &mockPlanningService{
		result: []dto.ScheduleItem{{OrderID: "order-1", Score: 250}},
	})

	req := httptest.NewRequest("GET", "/planning/schedule?horizon_days=14", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/planning/schedule", func(c *gin.Context) { setAuth(c); h.GetSchedule(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestPlanningHandler_GetSchedule_BadHorizon(t *testing.T) {
	h := newPlanningHandler(nil, nil, nil)

	req := httptest.NewRequest("GET", "/planning/schedule?horizon_days=abc", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/planning/schedule", func(c *gin.Context) { setAuth(c); h.GetSchedule(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPlanningHandler_GetSchedule_InvalidHorizon(t *testing.T) {
	h := newPlanningHandler(nil, nil, &mockPlanningService{err: service.ErrInvalidHorizon})

	req := httptest.NewRequest("GET", "/planning/schedule?horizon_days=-1", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/planning/schedule", func(c *gin.Context) { setAuth(c); h.GetSchedule(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13003 {
		t.Errorf("expected error code 13003, got %d", resp.Code)
	}
}

func TestPlanningHandler_CheckAvailability_Success(t *testing.T) {
	h := newPlanningHandler(&mockAllocationService{
		availabilityResult: &dto.AvailabilityResponse{
			ResourceType: model.ResourceTypeMachine,
			ResourceID:   "cnc-01",
			Available:    false,
			Conflicts:    []dto.OrderRef{{OrderID: "order-1", VoucherNo: "MO-2026-001"}},
		},
	}, nil, nil)

	req := httptest.NewRequest("POST", "/planning/availability", jsonBody(dto.AvailabilityRequest{
		ResourceType: model.ResourceTypeMachine,
		ResourceID:   "cnc-01",
		WindowStart:  time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		WindowEnd:    time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/planning/availability", func(c *gin.Context) { setAuth(c); h.CheckAvailability(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestPlanningHandler_CheckAvailability_BadResourceType(t *testing.T) {
	h := newPlanningHandler(nil, nil, nil)

	// oneof 校验在绑定阶段拦截非法资源类型
	req := httptest.NewRequest("POST", "/planning/availability", jsonBody(map[string]interface{}{
		"resource_type": "forklift",
		"resource_id":   "f-01",
		"window_start":  "2026-03-02T08:00:00Z",
		"window_end":    "2026-03-02T16:00:00Z",
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/planning/availability", func(c *gin.Context) { setAuth(c); h.CheckAvailability(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPlanningHandler_Allocate_Success(t *testing.T) {
	op := "op-wang"
	h := newPlanningHandler(&mockAllocationService{
		allocateResult: &dto.AllocationResult{
			OrderID:      "order-1",
			VoucherNo:    "MO-2026-001",
			Bindings:     dto.ResourceBindings{Operator: &op},
			Conflicts:    map[string][]dto.OrderRef{},
			HasConflicts: false,
		},
	}, nil, nil)

	req := httptest.NewRequest("POST", "/orders/order-1/allocate", jsonBody(dto.AllocateRequest{
		Operator: &op,
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders/:id/allocate", func(c *gin.Context) { setAuth(c); h.Allocate(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestPlanningHandler_Allocate_NoResource(t *testing.T) {
	h := newPlanningHandler(&mockAllocationService{allocateErr: service.ErrNoResourceSupplied}, nil, nil)

	req := httptest.NewRequest("POST", "/orders/order-1/allocate", jsonBody(dto.AllocateRequest{}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders/:id/allocate", func(c *gin.Context) { setAuth(c); h.Allocate(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13003 {
		t.Errorf("expected error code 13003, got %d", resp.Code)
	}
}

func TestPlanningHandler_Allocate_OrderNotFound(t *testing.T) {
	h := newPlanningHandler(&mockAllocationService{allocateErr: service.ErrOrderNotFound}, nil, nil)

	op := "op-wang"
	req := httptest.NewRequest("POST", "/orders/order-x/allocate", jsonBody(dto.AllocateRequest{
		Operator: &op,
	}))
	req.Header.Set("Content-Type", "application/json")

	w := serve(func(r *gin.Engine) {
		r.POST("/orders/:id/allocate", func(c *gin.Context) { setAuth(c); h.Allocate(c) })
	}, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13002 {
		t.Errorf("expected error code 13002, got %d", resp.Code)
	}
}

func TestPlanningHandler_GetCapacity_Success(t *testing.T) {
	h := newPlanningHandler(nil, &mockCapacityService{
		result: &dto.CapacityReport{PlannedHours: 40, AvailableHours: 56},
	}, nil)

	req := httptest.NewRequest("GET", "/planning/capacity?window_start=2026-03-02&window_end=2026-03-09", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/planning/capacity", func(c *gin.Context) { setAuth(c); h.GetCapacity(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestPlanningHandler_GetCapacity_BadWindow(t *testing.T) {
	h := newPlanningHandler(nil, nil, nil)

	req := httptest.NewRequest("GET", "/planning/capacity?window_start=not-a-date&window_end=2026-03-09", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/planning/capacity", func(c *gin.Context) { setAuth(c); h.GetCapacity(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13001 {
		t.Errorf("expected error code 13001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ScheduleXLSX_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("xlsx-bytes"),
		filename: "schedule_20260302.xlsx",
	})

	req := httptest.NewRequest("GET", "/export/schedule.xlsx", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/export/schedule.xlsx", func(c *gin.Context) { setAuth(c); h.ScheduleXLSX(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd != `attachment; filename="schedule_20260302.xlsx"` {
		t.Errorf("Content-Disposition 不符，实际=%s", cd)
	}
}

func TestExportHandler_ScheduleICS_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		ics:      "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
		filename: "schedule_20260302.ics",
	})

	req := httptest.NewRequest("GET", "/export/schedule.ics", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/export/schedule.ics", func(c *gin.Context) { setAuth(c); h.ScheduleICS(c) })
	}, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("VCALENDAR")) {
		t.Error("响应体应包含 iCalendar 内容")
	}
}

func TestExportHandler_Schedule_NoItems(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoItems})

	req := httptest.NewRequest("GET", "/export/schedule.xlsx", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/export/schedule.xlsx", func(c *gin.Context) { setAuth(c); h.ScheduleXLSX(c) })
	}, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14002 {
		t.Errorf("expected error code 14002, got %d", resp.Code)
	}
}

func TestExportHandler_Capacity_BadWindow(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	req := httptest.NewRequest("GET", "/export/capacity.xlsx?window_start=bad&window_end=2026-03-09", nil)

	w := serve(func(r *gin.Engine) {
		r.GET("/export/capacity.xlsx", func(c *gin.Context) { setAuth(c); h.CapacityXLSX(c) })
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14001 {
		t.Errorf("expected error code 14001, got %d", resp.Code)
	}
}
