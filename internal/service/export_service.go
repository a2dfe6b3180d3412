package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoItems      = errors.New("排产视野内无开放订单")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 建议排程导出为 Excel (.xlsx) 与 iCalendar (.ics)，产能报告导出为 Excel
//   - 导出以 bytes.Buffer / 字符串返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportSchedule 导出建议排程为 Excel
	ExportSchedule(ctx context.Context, orgID string, horizonDays int, now time.Time) (*bytes.Buffer, string, error)
	// ExportScheduleICS 导出建议排程为 iCalendar
	ExportScheduleICS(ctx context.Context, orgID string, horizonDays int, now time.Time) (string, string, error)
	// ExportCapacity 导出产能报告为 Excel
	ExportCapacity(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) (*bytes.Buffer, string, error)
}

type exportService struct {
	planning PlanningService
	capacity CapacityService
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(planning PlanningService, capacity CapacityService, logger *zap.Logger) ExportService {
	return &exportService{planning: planning, capacity: capacity, logger: logger}
}

const exportTimeLayout = "2006-01-02 15:04"

func (s *exportService) ExportSchedule(ctx context.Context, orgID string, horizonDays int, now time.Time) (*bytes.Buffer, string, error) {
	items, err := s.planning.ProjectSchedule(ctx, orgID, horizonDays, now)
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", ErrExportNoItems
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "建议排程"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"凭证号", "优先级", "分数", "计划交期", "预估工时", "建议开始", "建议结束", "操作员", "机台"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, item := range items {
		plannedEnd := ""
		if item.PlannedEnd != nil {
			plannedEnd = item.PlannedEnd.Format(exportTimeLayout)
		}
		operator, machine := "", ""
		if item.Bindings.Operator != nil {
			operator = *item.Bindings.Operator
		}
		if item.Bindings.MachineID != nil {
			machine = *item.Bindings.MachineID
		}
		values := []interface{}{
			item.VoucherNo,
			item.Priority,
			item.Score,
			plannedEnd,
			item.EstimatedHours,
			item.SuggestedStart.Format(exportTimeLayout),
			item.SuggestedEnd.Format(exportTimeLayout),
			operator,
			machine,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成排程 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) ExportScheduleICS(ctx context.Context, orgID string, horizonDays int, now time.Time) (string, string, error) {
	items, err := s.planning.ProjectSchedule(ctx, orgID, horizonDays, now)
	if err != nil {
		return "", "", err
	}
	if len(items) == 0 {
		return "", "", ErrExportNoItems
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//prodline//planning//CN")

	for _, item := range items {
		event := cal.AddEvent(fmt.Sprintf("%s@prodline", item.OrderID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(item.SuggestedStart)
		event.SetEndAt(item.SuggestedEnd)
		event.SetSummary(fmt.Sprintf("生产订单 %s（%s）", item.VoucherNo, item.Priority))
		event.SetDescription(fmt.Sprintf("优先级分数 %d，预估工时 %.1f 小时", item.Score, item.EstimatedHours))
	}

	filename := fmt.Sprintf("schedule_%s.ics", now.Format("20060102"))
	return cal.Serialize(), filename, nil
}

func (s *exportService) ExportCapacity(ctx context.Context, orgID string, windowStart, windowEnd time.Time, department string) (*bytes.Buffer, string, error) {
	report, err := s.capacity.Utilization(ctx, orgID, windowStart, windowEnd, department)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "产能报告"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"窗口开始", report.WindowStart.Format(exportTimeLayout)},
		{"窗口结束", report.WindowEnd.Format(exportTimeLayout)},
		{"窗口天数", report.WindowDays},
		{"部门", report.Department},
		{"计划工时", report.PlannedHours},
		{"实际工时", report.ActualHours},
		{"可用工时", report.AvailableHours},
		{"利用率(%)", report.UtilizationRate},
		{"效率(%)", report.Efficiency},
		{"订单总数", report.TotalOrders},
		{"计划中", report.OrderCounts["planned"]},
		{"生产中", report.OrderCounts["in_progress"]},
		{"已完成", report.OrderCounts["completed"]},
	}
	for i, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成产能 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("capacity_%s_%s.xlsx",
		windowStart.Format("20060102"), windowEnd.Format("20060102"))
	return buf, filename, nil
}
