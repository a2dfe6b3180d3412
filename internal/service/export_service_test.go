package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"prodline/backend/internal/model"
)

// ── 测试辅助 ──

func setupExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	logger := zap.NewNop()
	planning := NewPlanningService(repos.toRepository(), logger)
	capacity := NewCapacityService(repos.toRepository(), logger)
	svc := NewExportService(planning, capacity, logger)
	return svc, repos
}

// ── ExportSchedule 测试 ──

func TestExportSchedule_NoItems(t *testing.T) {
	svc, _ := setupExportService()

	_, _, err := svc.ExportSchedule(context.Background(), "org-1", 30, planNow)
	if !errors.Is(err, ErrExportNoItems) {
		t.Errorf("期望 ErrExportNoItems，实际: %v", err)
	}
}

func TestExportSchedule_InvalidHorizon(t *testing.T) {
	svc, _ := setupExportService()

	_, _, err := svc.ExportSchedule(context.Background(), "org-1", 0, planNow)
	if !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("期望 ErrInvalidHorizon，实际: %v", err)
	}
}

func TestExportSchedule_Success(t *testing.T) {
	svc, repos := setupExportService()
	seedPlanOrder(repos, "order-a", model.PriorityHigh, timePtr(planNow.AddDate(0, 0, 5)), 20, 50)

	buf, filename, err := svc.ExportSchedule(context.Background(), "org-1", 30, planNow)
	if err != nil {
		t.Fatalf("导出排程应成功: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Error("导出文件不应为空")
	}
	if filename != "schedule_20260302.xlsx" {
		t.Errorf("文件名不符，实际=%s", filename)
	}
}

// ── ExportScheduleICS 测试 ──

func TestExportScheduleICS_Success(t *testing.T) {
	svc, repos := setupExportService()
	seedPlanOrder(repos, "order-a", model.PriorityHigh, timePtr(planNow.AddDate(0, 0, 5)), 20, 50)

	content, filename, err := svc.ExportScheduleICS(context.Background(), "org-1", 30, planNow)
	if err != nil {
		t.Fatalf("导出 ICS 应成功: %v", err)
	}
	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("ICS 内容应包含 VCALENDAR 块")
	}
	if !strings.Contains(content, "MO-order-a") {
		t.Error("ICS 内容应包含订单凭证号")
	}
	if filename != "schedule_20260302.ics" {
		t.Errorf("文件名不符，实际=%s", filename)
	}
}

func TestExportScheduleICS_NoItems(t *testing.T) {
	svc, _ := setupExportService()

	_, _, err := svc.ExportScheduleICS(context.Background(), "org-1", 30, planNow)
	if !errors.Is(err, ErrExportNoItems) {
		t.Errorf("期望 ErrExportNoItems，实际: %v", err)
	}
}

// ── ExportCapacity 测试 ──

func TestExportCapacity_Success(t *testing.T) {
	svc, _ := setupExportService()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	buf, filename, err := svc.ExportCapacity(context.Background(), "org-1", start, end, "")
	if err != nil {
		t.Fatalf("导出产能报告应成功: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Error("导出文件不应为空")
	}
	if filename != "capacity_20260302_20260309.xlsx" {
		t.Errorf("文件名不符，实际=%s", filename)
	}
}

func TestExportCapacity_InvalidWindow(t *testing.T) {
	svc, _ := setupExportService()

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	_, _, err := svc.ExportCapacity(context.Background(), "org-1", start, start.AddDate(0, 0, -7), "")
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("期望 ErrInvalidWindow，实际: %v", err)
	}
}
