package dto

import "time"

// ── 生产订单模块 DTO ──

// CreateOrderRequest 创建生产订单请求
// 凭证号由平台凭证中心分配后随请求传入
type CreateOrderRequest struct {
	VoucherNo           string     `json:"voucher_no"            binding:"required,max=64"`
	BOMID               string     `json:"bom_id"                binding:"required,uuid"`
	PlannedQuantity     float64    `json:"planned_quantity"      binding:"required,gt=0"`
	Priority            string     `json:"priority"              binding:"omitempty,oneof=low medium high urgent"`
	PlannedStart        *time.Time `json:"planned_start"`
	PlannedEnd          *time.Time `json:"planned_end"`
	EstimatedSetupHours float64    `json:"estimated_setup_hours" binding:"omitempty,min=0"`
	EstimatedRunHours   float64    `json:"estimated_run_hours"   binding:"omitempty,min=0"`
	Department          string     `json:"department"            binding:"omitempty,max=64"`
	Notes               string     `json:"notes"                 binding:"omitempty,max=2000"`
}

// UpdateOrderRequest 更新生产订单计划字段请求（nil 字段不变更）
type UpdateOrderRequest struct {
	PlannedQuantity     *float64   `json:"planned_quantity"      binding:"omitempty,gt=0"`
	Priority            *string    `json:"priority"              binding:"omitempty,oneof=low medium high urgent"`
	PlannedStart        *time.Time `json:"planned_start"`
	PlannedEnd          *time.Time `json:"planned_end"`
	EstimatedSetupHours *float64   `json:"estimated_setup_hours" binding:"omitempty,min=0"`
	EstimatedRunHours   *float64   `json:"estimated_run_hours"   binding:"omitempty,min=0"`
	Department          *string    `json:"department"            binding:"omitempty,max=64"`
	Notes               *string    `json:"notes"                 binding:"omitempty,max=2000"`
}

// UpdateOrderStatusRequest 生产状态流转请求（生产执行协作方使用）
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=planned in_progress completed cancelled"`
}

// OrderListRequest 订单列表查询参数
type OrderListRequest struct {
	Status     string `form:"status"     binding:"omitempty,oneof=planned in_progress completed cancelled"`
	Priority   string `form:"priority"   binding:"omitempty,oneof=low medium high urgent"`
	Department string `form:"department" binding:"omitempty,max=64"`
	PaginationRequest
}
