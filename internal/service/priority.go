package service

import (
	"time"

	"prodline/backend/internal/model"
)

// ── 排产常量 ──
// 单虚拟时间线与每日 8 小时是有意的简化口径，
// 替换为按资源日历的模型时只需改这里，不影响打分与冲突逻辑

const (
	// HoursPerWorkday 每个工作日的可用工时
	HoursPerWorkday = 8
	// ScheduleBufferHours 相邻两个建议窗口之间的缓冲小时数
	ScheduleBufferHours = 1
)

// ── 优先级打分 ──
// 加法计分（非加权平均），结果无上界，仅用于相对排序。
// 各档位表达为有序的（条件 → 加分）表，首个命中档生效，档间互斥。

// priorityWeights 优先级基础分
var priorityWeights = map[string]int{
	model.PriorityUrgent: 100,
	model.PriorityHigh:   75,
	model.PriorityMedium: 50,
	model.PriorityLow:    25,
}

// defaultPriorityWeight 未知优先级按 medium 处理
const defaultPriorityWeight = 50

// dueBand 交期档：距计划结束时间不超过 within 时加 bonus 分
type dueBand struct {
	within time.Duration
	bonus  int
}

// overdueBonus 已逾期（planned_end ≤ now）加分，优先于所有交期档
const overdueBonus = 200

// dueBands 从小到大排列，首个命中档生效
var dueBands = []dueBand{
	{within: 3 * 24 * time.Hour, bonus: 150},
	{within: 7 * 24 * time.Hour, bonus: 100},
	{within: 14 * 24 * time.Hour, bonus: 50},
}

// 等待加分：每等满一天 +2，封顶 +100
const (
	waitingBonusPerDay = 2
	waitingBonusCap    = 100
)

// sizeBand 批量档：计划数量大于 above 时加 bonus 分
type sizeBand struct {
	above float64
	bonus int
}

// sizeBands 从大到小排列，首个命中档生效
var sizeBands = []sizeBand{
	{above: 100, bonus: 20},
	{above: 50, bonus: 10},
}

// ScoreOrder 计算订单的优先级分数
// 纯函数：now 由调用方显式传入，不读取环境时钟
func ScoreOrder(order *model.ManufacturingOrder, now time.Time) int {
	score, ok := priorityWeights[order.Priority]
	if !ok {
		score = defaultPriorityWeight
	}

	score += dueDateBonus(order.PlannedEnd, now)
	score += waitingBonus(order.CreatedAt, now)
	score += sizeBonus(order.PlannedQuantity)

	return score
}

// dueDateBonus 交期加分，仅在计划结束时间已设置时参与
func dueDateBonus(plannedEnd *time.Time, now time.Time) int {
	if plannedEnd == nil {
		return 0
	}
	if !plannedEnd.After(now) {
		return overdueBonus
	}
	remaining := plannedEnd.Sub(now)
	for _, band := range dueBands {
		if remaining <= band.within {
			return band.bonus
		}
	}
	return 0
}

// waitingBonus 等待加分，仅在创建时间已设置时参与
func waitingBonus(createdAt, now time.Time) int {
	if createdAt.IsZero() || !now.After(createdAt) {
		return 0
	}
	days := int(now.Sub(createdAt) / (24 * time.Hour))
	bonus := days * waitingBonusPerDay
	if bonus > waitingBonusCap {
		return waitingBonusCap
	}
	return bonus
}

// sizeBonus 批量加分
func sizeBonus(plannedQuantity float64) int {
	for _, band := range sizeBands {
		if plannedQuantity > band.above {
			return band.bonus
		}
	}
	return 0
}
