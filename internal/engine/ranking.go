package engine

import (
	"strings"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// NoSuitableDesksMessage 没有可推荐工位时的终态说明
const NoSuitableDesksMessage = "no suitable desks found"

// Rank 按结论排序：可用工位在前（保持筛选顺序），按需追加uncertain工位，丢弃不可用工位。
func Rank(evaluations []models.CandidateEvaluation, includeUncertain bool, trace *models.Trace) ([]models.Recommendation, models.ResultStatus) {
	var available, uncertainEvals []models.CandidateEvaluation
	dropped := 0
	for _, eval := range evaluations {
		switch eval.Verdict {
		case models.VerdictAvailable:
			available = append(available, eval)
		case models.VerdictUncertain:
			uncertainEvals = append(uncertainEvals, eval)
		default:
			dropped++
		}
	}

	ordered := available
	if includeUncertain {
		ordered = append(ordered, uncertainEvals...)
	} else if len(uncertainEvals) > 0 {
		trace.Info(models.StageRanking, "", "%d uncertain desks omitted (include_uncertain is off)", len(uncertainEvals))
	}
	if dropped > 0 {
		trace.Info(models.StageRanking, "", "%d unavailable desks dropped", dropped)
	}

	recommendations := make([]models.Recommendation, 0, len(ordered))
	for i, eval := range ordered {
		rec := models.Recommendation{
			Rank:      i + 1,
			Desk:      eval.Desk,
			Verdict:   eval.Verdict,
			Rationale: rationale(eval),
		}
		trace.Info(models.StageRanking, eval.Desk.ID, "#%d desk %s (%s)", rec.Rank, eval.Desk.ID, eval.Verdict)
		recommendations = append(recommendations, rec)
	}

	if len(recommendations) == 0 {
		trace.Info(models.StageRanking, "", NoSuitableDesksMessage)
		return recommendations, models.ResultNoSuitableDesks
	}
	return recommendations, models.ResultOK
}

func rationale(eval models.CandidateEvaluation) string {
	var b strings.Builder
	b.WriteString("Desk ")
	b.WriteString(eval.Desk.ID)
	b.WriteString(" (")
	b.WriteString(string(eval.Desk.Type))
	if eval.Desk.AreaID != "" {
		b.WriteString(", area ")
		b.WriteString(eval.Desk.AreaID)
	}
	b.WriteString(")")
	if len(eval.Desk.Features) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(eval.Desk.Features, ", "))
	}
	if len(eval.Reasons) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(eval.Reasons, "; "))
	}
	return b.String()
}
