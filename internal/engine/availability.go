package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

const (
	checkStatus       = "status"
	checkOccupancy    = "occupancy"
	checkCapacity     = "capacity"
	checkSanitization = "sanitization"
)

// AvailabilityInput 可用性评估所需的只读输入
type AvailabilityInput struct {
	Snapshot *models.Snapshot
	Policies *PolicyResolver
	Window   models.TimeWindow
	Now      time.Time
}

// Evaluate 逐个评估候选工位。检查按顺序短路，单个工位的失败不会中断其他工位。
// 这只是启发式判断，不做预订或加锁。
func Evaluate(ctx context.Context, desks []models.Desk, in AvailabilityInput, trace *models.Trace) ([]models.CandidateEvaluation, error) {
	if len(desks) == 0 {
		trace.Info(models.StageAvailability, "", "no candidates to evaluate")
		return nil, nil
	}

	trace.Info(models.StageAvailability, "", "evaluating %d candidates for %s", len(desks), in.Window)

	evaluations := make([]models.CandidateEvaluation, 0, len(desks))
	for _, desk := range desks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		eval := evaluateIsolated(desk, in, trace)
		trace.Info(models.StageAvailability, desk.ID, "desk %s: %s (%s)", desk.ID, eval.Verdict, strings.Join(eval.Reasons, "; "))
		evaluations = append(evaluations, eval)
	}

	return evaluations, nil
}

// evaluateIsolated 捕获单个工位评估中的panic，结论记为uncertain
func evaluateIsolated(desk models.Desk, in AvailabilityInput, trace *models.Trace) (eval models.CandidateEvaluation) {
	defer func() {
		if r := recover(); r != nil {
			trace.Warn(models.StageAvailability, desk.ID, "desk %s: evaluation failed: %v", desk.ID, r)
			eval = models.CandidateEvaluation{
				Desk:    desk,
				Verdict: models.VerdictUncertain,
				Reasons: []string{fmt.Sprintf("evaluation failed: %v", r)},
			}
		}
	}()
	return evaluateDesk(desk, in, trace)
}

func evaluateDesk(desk models.Desk, in AvailabilityInput, trace *models.Trace) models.CandidateEvaluation {
	eval := models.CandidateEvaluation{Desk: desk}

	// 1. 工位状态
	if !desk.Status.UsableFor(in.Window) {
		fail(&eval, checkStatus, fmt.Sprintf("status: %s", statusLabel(desk.Status)))
		return eval
	}
	pass(&eval, checkStatus)

	// 2. 解析时间窗口对应的占用
	capacity := in.Snapshot.AreaCapacity(desk.AreaID)
	var occupancy float64
	if in.Window.IsNow() {
		rec, ok := in.Snapshot.CurrentOccupancy(desk.AreaID)
		if !ok {
			trace.Warn(models.StageAvailability, desk.ID, "desk %s: area %s has no current occupancy record", desk.ID, desk.AreaID)
			return uncertain(eval, checkOccupancy, fmt.Sprintf("no current occupancy data for area %s", desk.AreaID))
		}
		pct, ok := rec.Percentage(capacity)
		if !ok {
			trace.Warn(models.StageAvailability, desk.ID, "desk %s: area %s occupancy has no percent and no capacity", desk.ID, desk.AreaID)
			return uncertain(eval, checkOccupancy, fmt.Sprintf("occupancy for area %s cannot be resolved", desk.AreaID))
		}
		occupancy = pct
		eval.OccupancySource = "current"
	} else {
		pct, ok := in.Snapshot.Forecast(desk.AreaID, in.Window.Bucket())
		if !ok {
			trace.Warn(models.StageAvailability, desk.ID, "desk %s: area %s has no %q forecast", desk.ID, desk.AreaID, in.Window.Bucket())
			return uncertain(eval, checkOccupancy, "no forecast for requested window")
		}
		occupancy = pct
		eval.OccupancySource = "forecast"
	}
	eval.Occupancy = &occupancy
	pass(&eval, checkOccupancy)

	// 3. 容量策略
	limit := in.Policies.Capacity(desk.ZoneID)
	eval.Threshold = limit.Threshold
	if occupancy >= limit.Threshold {
		fail(&eval, checkCapacity, fmt.Sprintf("area at/above capacity: %s occupancy %.0f%% for %s meets threshold %s",
			eval.OccupancySource, occupancy, in.Window, limit))
		return eval
	}
	pass(&eval, checkCapacity)

	// 4. 消毒间隔，仅对当前请求有意义
	if in.Window.IsNow() && desk.LastUsed != nil {
		if gap, ok := in.Policies.Sanitization(desk.ZoneID); ok {
			if in.Now.Sub(*desk.LastUsed) < gap.Gap {
				fail(&eval, checkSanitization, fmt.Sprintf("sanitization gap: last used within %s (%s)", gap.Gap, gap.PolicyID))
				return eval
			}
			pass(&eval, checkSanitization)
		}
	}

	eval.Verdict = models.VerdictAvailable
	eval.Reasons = append(eval.Reasons, fmt.Sprintf("area %s %s occupancy %.0f%% is below threshold %s",
		desk.AreaID, eval.OccupancySource, occupancy, limit))
	if !in.Window.IsNow() {
		eval.Reasons = append(eval.Reasons, "desk may be available; forecasts are not bookings")
	}
	return eval
}

func statusLabel(s models.DeskStatus) string {
	switch {
	case s == "":
		return "unknown"
	case !s.Known():
		return fmt.Sprintf("unknown (%s)", s)
	}
	return string(s)
}

func pass(eval *models.CandidateEvaluation, check string) {
	eval.Checks = append(eval.Checks, models.CheckResult{Name: check, Passed: true})
}

func fail(eval *models.CandidateEvaluation, check, reason string) {
	eval.Checks = append(eval.Checks, models.CheckResult{Name: check, Passed: false})
	eval.Verdict = models.VerdictUnavailable
	eval.Reasons = append(eval.Reasons, reason)
}

func uncertain(eval models.CandidateEvaluation, check, reason string) models.CandidateEvaluation {
	eval.Checks = append(eval.Checks, models.CheckResult{Name: check, Passed: false})
	eval.Verdict = models.VerdictUncertain
	eval.Reasons = append(eval.Reasons, reason)
	return eval
}
