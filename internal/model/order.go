package model

import "time"

// ── 生产状态 ──
// 状态流转由生产执行模块负责（领料/报工/质检），排产核心只读不写

const (
	OrderStatusPlanned    = "planned"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ── 订单优先级 ──

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ── 资源类型 ──
// 资源只是附着在订单上的不透明标识字符串，
// 人员/设备主数据归 HR 与资产模块管理，本服务不做引用完整性校验

const (
	ResourceTypeOperator    = "operator"
	ResourceTypeSupervisor  = "supervisor"
	ResourceTypeMachine     = "machine"
	ResourceTypeWorkstation = "workstation"
)

// ValidResourceType 检查资源类型取值
func ValidResourceType(t string) bool {
	switch t {
	case ResourceTypeOperator, ResourceTypeSupervisor, ResourceTypeMachine, ResourceTypeWorkstation:
		return true
	}
	return false
}

// ManufacturingOrder 生产订单 — 对应 manufacturing_orders
type ManufacturingOrder struct {
	OrderID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"order_id"`
	OrgID     string `gorm:"type:uuid;not null;index:idx_mo_org_status"     json:"org_id"`
	VoucherNo string `gorm:"type:varchar(64);not null"                      json:"voucher_no"`
	BOMID     string `gorm:"type:uuid;not null"                             json:"bom_id"`

	PlannedQuantity  float64 `gorm:"type:numeric(12,4);not null;default:0" json:"planned_quantity"`
	ProducedQuantity float64 `gorm:"type:numeric(12,4);not null;default:0" json:"produced_quantity"`
	ScrapQuantity    float64 `gorm:"type:numeric(12,4);not null;default:0" json:"scrap_quantity"`

	ProductionStatus string `gorm:"type:varchar(20);not null;default:'planned';index:idx_mo_org_status" json:"production_status"`
	Priority         string `gorm:"type:varchar(20);not null;default:'medium'"                          json:"priority"`

	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	ActualStart  *time.Time `json:"actual_start,omitempty"`
	ActualEnd    *time.Time `json:"actual_end,omitempty"`

	AssignedOperator   *string `gorm:"type:varchar(64)" json:"assigned_operator,omitempty"`
	AssignedSupervisor *string `gorm:"type:varchar(64)" json:"assigned_supervisor,omitempty"`
	MachineID          *string `gorm:"type:varchar(64)" json:"machine_id,omitempty"`
	WorkstationID      *string `gorm:"type:varchar(64)" json:"workstation_id,omitempty"`

	EstimatedSetupHours float64 `gorm:"not null;default:0" json:"estimated_setup_hours"`
	EstimatedRunHours   float64 `gorm:"not null;default:0" json:"estimated_run_hours"`
	ActualSetupHours    float64 `gorm:"not null;default:0" json:"actual_setup_hours"`
	ActualRunHours      float64 `gorm:"not null;default:0" json:"actual_run_hours"`

	CompletionPercentage float64 `gorm:"not null;default:0" json:"completion_percentage"`
	Department           string  `gorm:"type:varchar(64)"   json:"department,omitempty"`
	Notes                string  `gorm:"type:text"          json:"notes,omitempty"`
	VersionedModel

	// 关联
	BOM *BillOfMaterials `gorm:"foreignKey:BOMID;references:BOMID" json:"bom,omitempty"`
}

func (ManufacturingOrder) TableName() string { return "manufacturing_orders" }

// EstimatedHours 计划工时 = 准备工时 + 运行工时
func (o *ManufacturingOrder) EstimatedHours() float64 {
	return o.EstimatedSetupHours + o.EstimatedRunHours
}

// ActualHours 实际工时 = 实际准备工时 + 实际运行工时
func (o *ManufacturingOrder) ActualHours() float64 {
	return o.ActualSetupHours + o.ActualRunHours
}

// ResourceBinding 按资源类型取当前绑定的资源标识，未绑定返回 nil
func (o *ManufacturingOrder) ResourceBinding(resourceType string) *string {
	switch resourceType {
	case ResourceTypeOperator:
		return o.AssignedOperator
	case ResourceTypeSupervisor:
		return o.AssignedSupervisor
	case ResourceTypeMachine:
		return o.MachineID
	case ResourceTypeWorkstation:
		return o.WorkstationID
	}
	return nil
}
