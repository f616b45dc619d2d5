package models

import "fmt"

// Verdict 可用性评估结论
type Verdict string

const (
	VerdictAvailable   Verdict = "available"
	VerdictUnavailable Verdict = "unavailable"
	VerdictUncertain   Verdict = "uncertain"
)

// Stage 流水线阶段
type Stage string

const (
	StageCriteria     Stage = "criteria"
	StageFilter       Stage = "filter"
	StageAvailability Stage = "availability"
	StageRanking      Stage = "ranking"
)

// TraceLevel 跟踪条目级别
type TraceLevel string

const (
	TraceInfo    TraceLevel = "info"
	TraceWarning TraceLevel = "warning"
)

// TraceEntry 单条决策记录
type TraceEntry struct {
	Stage   Stage      `json:"stage"`
	Level   TraceLevel `json:"level"`
	DeskID  string     `json:"desk_id,omitempty"`
	Message string     `json:"message"`
}

func (e TraceEntry) String() string {
	prefix := fmt.Sprintf("[%s]", e.Stage)
	if e.Level == TraceWarning {
		prefix += " warning:"
	}
	return prefix + " " + e.Message
}

// Trace 按顺序记录各阶段的决策与原因
type Trace struct {
	Entries []TraceEntry `json:"entries"`
}

// Info 追加普通记录
func (t *Trace) Info(stage Stage, deskID, format string, args ...interface{}) {
	t.Entries = append(t.Entries, TraceEntry{Stage: stage, Level: TraceInfo, DeskID: deskID, Message: fmt.Sprintf(format, args...)})
}

// Warn 追加警告记录
func (t *Trace) Warn(stage Stage, deskID, format string, args ...interface{}) {
	t.Entries = append(t.Entries, TraceEntry{Stage: stage, Level: TraceWarning, DeskID: deskID, Message: fmt.Sprintf(format, args...)})
}

// Warnings 返回所有警告
func (t *Trace) Warnings() []TraceEntry {
	var out []TraceEntry
	for _, e := range t.Entries {
		if e.Level == TraceWarning {
			out = append(out, e)
		}
	}
	return out
}

// ForStage 返回指定阶段的记录
func (t *Trace) ForStage(stage Stage) []TraceEntry {
	var out []TraceEntry
	for _, e := range t.Entries {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// CandidateEvaluation 单个工位的评估结果
type CandidateEvaluation struct {
	Desk    Desk    `json:"desk"`
	Verdict Verdict `json:"verdict"`

	// 各检查项是否通过，按执行顺序
	Checks []CheckResult `json:"checks"`

	Reasons []string `json:"reasons"`

	// 解析出的占用百分比及来源（current/forecast），未解析时为nil
	Occupancy       *float64 `json:"occupancy_percent,omitempty"`
	OccupancySource string   `json:"occupancy_source,omitempty"`
	Threshold       float64  `json:"threshold_percent,omitempty"`
}

// CheckResult 单项检查
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Recommendation 最终推荐
type Recommendation struct {
	Rank      int     `json:"rank"`
	Desk      Desk    `json:"desk"`
	Verdict   Verdict `json:"verdict"`
	Rationale string  `json:"rationale"`
}

// ResultStatus 请求终态
type ResultStatus string

const (
	ResultOK              ResultStatus = "ok"
	ResultNoSuitableDesks ResultStatus = "no_suitable_desks"
)

// Result 一次推荐请求的完整输出
type Result struct {
	RequestID        string                `json:"request_id"`
	Query            string                `json:"query,omitempty"`
	Criteria         Criteria              `json:"criteria"`
	CriteriaFallback bool                  `json:"criteria_fallback"`
	Status           ResultStatus          `json:"status"`
	Message          string                `json:"message"`
	Recommendations  []Recommendation      `json:"recommendations"`
	Evaluations      []CandidateEvaluation `json:"evaluations"`
	Trace            Trace                 `json:"trace"`
}
