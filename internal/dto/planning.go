package dto

import "time"

// ── 排产与资源分配模块 DTO ──

// AvailabilityRequest 资源可用性检查请求
type AvailabilityRequest struct {
	ResourceType string    `json:"resource_type" binding:"required,oneof=operator supervisor machine workstation"`
	ResourceID   string    `json:"resource_id"   binding:"required,max=64"`
	WindowStart  time.Time `json:"window_start"  binding:"required"`
	WindowEnd    time.Time `json:"window_end"    binding:"required"`
}

// OrderRef 冲突订单引用
type OrderRef struct {
	OrderID      string     `json:"order_id"`
	VoucherNo    string     `json:"voucher_no"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
}

// AvailabilityResponse 资源可用性检查响应
// Conflicts 返回完整冲突集，而非仅布尔值
type AvailabilityResponse struct {
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	Available    bool       `json:"available"`
	Conflicts    []OrderRef `json:"conflicts"`
}

// AllocateRequest 资源分配请求（nil 字段不分配）
type AllocateRequest struct {
	Operator          *string `json:"operator"           binding:"omitempty,max=64"`
	Supervisor        *string `json:"supervisor"         binding:"omitempty,max=64"`
	MachineID         *string `json:"machine_id"         binding:"omitempty,max=64"`
	WorkstationID     *string `json:"workstation_id"     binding:"omitempty,max=64"`
	CheckAvailability *bool   `json:"check_availability"` // 默认 true
}

// ResourceBindings 订单当前的资源绑定
type ResourceBindings struct {
	Operator      *string `json:"operator,omitempty"`
	Supervisor    *string `json:"supervisor,omitempty"`
	MachineID     *string `json:"machine_id,omitempty"`
	WorkstationID *string `json:"workstation_id,omitempty"`
}

// AllocationResult 资源分配结果
// 冲突是随成功写入一并返回的提示数据，不是错误
type AllocationResult struct {
	OrderID      string                `json:"order_id"`
	VoucherNo    string                `json:"voucher_no"`
	Bindings     ResourceBindings      `json:"bindings"`
	Conflicts    map[string][]OrderRef `json:"conflicts"`
	HasConflicts bool                  `json:"has_conflicts"`
}

// CapacityReport 产能利用率报告
type CapacityReport struct {
	WindowStart     time.Time      `json:"window_start"`
	WindowEnd       time.Time      `json:"window_end"`
	WindowDays      int            `json:"window_days"`
	Department      string         `json:"department,omitempty"`
	PlannedHours    float64        `json:"planned_hours"`
	ActualHours     float64        `json:"actual_hours"`
	AvailableHours  float64        `json:"available_hours"`
	UtilizationRate float64        `json:"utilization_rate"`
	Efficiency      float64        `json:"efficiency"`
	TotalOrders     int            `json:"total_orders"`
	OrderCounts     map[string]int `json:"order_counts"`
}

// ScheduleItem 建议排产项（仅作响应，不落库）
type ScheduleItem struct {
	OrderID        string           `json:"order_id"`
	VoucherNo      string           `json:"voucher_no"`
	Priority       string           `json:"priority"`
	Score          int              `json:"score"`
	PlannedEnd     *time.Time       `json:"planned_end,omitempty"`
	EstimatedHours float64          `json:"estimated_hours"`
	SuggestedStart time.Time        `json:"suggested_start"`
	SuggestedEnd   time.Time        `json:"suggested_end"`
	Bindings       ResourceBindings `json:"bindings"`
}
