package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"prodline/backend/internal/dto"
	"prodline/backend/internal/repository"
)

// ── 排产模块业务错误 ──

var ErrInvalidHorizon = errors.New("排产视野天数必须大于 0")

// PlanningService 建议排产业务接口
//
// 设计说明：
//   - 贪心、单时间线的建议排程，不做容量约束的最优求解
//   - 纯读操作：建议窗口只出现在响应中，提交由独立的分配操作完成
type PlanningService interface {
	ProjectSchedule(ctx context.Context, orgID string, horizonDays int, now time.Time) ([]dto.ScheduleItem, error)
}

type planningService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPlanningService 创建 PlanningService 实例
func NewPlanningService(repo *repository.Repository, logger *zap.Logger) PlanningService {
	return &planningService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ProjectSchedule — 三阶段贪心排产建议
// ════════════════════════════════════════════════════════════
//
// 阶段1 取数：开放订单（planned/in_progress），计划结束时间
//        早于等于 now+horizon 或未设置
// 阶段2 打分排序：按分数降序稳定排序，同分按订单 ID 升序，
//        保证跨请求结果确定
// 阶段3 铺窗口：在单条虚拟时间线上顺序分配互不重叠的建议窗口，
//        时长向上取整到整数个 8 小时工作日，窗口间留 1 小时缓冲

func (s *planningService) ProjectSchedule(ctx context.Context, orgID string, horizonDays int, now time.Time) ([]dto.ScheduleItem, error) {
	if horizonDays <= 0 {
		return nil, ErrInvalidHorizon
	}

	cutoff := now.AddDate(0, 0, horizonDays)
	orders, err := s.repo.Order.ListOpenEndingBy(ctx, orgID, cutoff)
	if err != nil {
		s.logger.Error("查询开放订单失败", zap.Error(err))
		return nil, err
	}

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, len(orders))
	for i := range orders {
		ranked[i] = scored{idx: i, score: ScoreOrder(&orders[i], now)}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return orders[ranked[a].idx].OrderID < orders[ranked[b].idx].OrderID
	})

	items := make([]dto.ScheduleItem, 0, len(ranked))
	cursor := now
	for _, r := range ranked {
		o := &orders[r.idx]

		duration := suggestedDuration(o.EstimatedHours())
		start := cursor
		end := start.Add(duration)
		cursor = end.Add(ScheduleBufferHours * time.Hour)

		items = append(items, dto.ScheduleItem{
			OrderID:        o.OrderID,
			VoucherNo:      o.VoucherNo,
			Priority:       o.Priority,
			Score:          r.score,
			PlannedEnd:     o.PlannedEnd,
			EstimatedHours: o.EstimatedHours(),
			SuggestedStart: start,
			SuggestedEnd:   end,
			Bindings: dto.ResourceBindings{
				Operator:      o.AssignedOperator,
				Supervisor:    o.AssignedSupervisor,
				MachineID:     o.MachineID,
				WorkstationID: o.WorkstationID,
			},
		})
	}

	return items, nil
}

// suggestedDuration 建议窗口时长：
// 工时下限为一个工作日，向上取整到整数个 8 小时工作日
func suggestedDuration(estimatedHours float64) time.Duration {
	hours := estimatedHours
	if hours < HoursPerWorkday {
		hours = HoursPerWorkday
	}
	days := math.Ceil(hours / HoursPerWorkday)
	return time.Duration(days*HoursPerWorkday) * time.Hour
}
