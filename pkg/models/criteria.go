package models

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// AffinityKind 已识别的邻近偏好
type AffinityKind int

const (
	AffinityNone AffinityKind = iota
	AffinityMarketing
	AffinityUnrecognized
)

// Affinity 邻近偏好；Unrecognized 时保留原始文本用于说明
type Affinity struct {
	Kind AffinityKind
	Raw  string
}

// Team 偏好对应的团队标签
func (a Affinity) Team() string {
	if a.Kind == AffinityMarketing {
		return "marketing"
	}
	return ""
}

func (a Affinity) String() string {
	switch a.Kind {
	case AffinityNone:
		return "none"
	case AffinityMarketing:
		return "near marketing"
	default:
		return fmt.Sprintf("unrecognized(%q)", a.Raw)
	}
}

// MarshalText 以可读文本输出
func (a Affinity) MarshalText() ([]byte, error) {
	switch a.Kind {
	case AffinityNone:
		return []byte(""), nil
	case AffinityMarketing:
		return []byte("near marketing"), nil
	default:
		return []byte(a.Raw), nil
	}
}

// UnmarshalText 解析文本
func (a *Affinity) UnmarshalText(text []byte) error {
	*a = ParseAffinity(string(text))
	return nil
}

var marketingAffinities = map[string]struct{}{
	"marketing":               {},
	"marketing team":          {},
	"marketing zone":          {},
	"the marketing team":      {},
	"near marketing":          {},
	"near marketing team":     {},
	"near the marketing":      {},
	"near the marketing team": {},
	"close to marketing":      {},
}

// ParseAffinity 将自由文本映射到已知偏好
func ParseAffinity(raw string) Affinity {
	norm := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if norm == "" || norm == "none" || norm == "any" {
		return Affinity{Kind: AffinityNone}
	}
	if _, ok := marketingAffinities[norm]; ok {
		return Affinity{Kind: AffinityMarketing, Raw: raw}
	}
	return Affinity{Kind: AffinityUnrecognized, Raw: raw}
}

// TimeWindow 请求的时间窗口，空标签等同于"现在"
type TimeWindow struct {
	Label string
}

var nowLabels = map[string]struct{}{
	"":            {},
	"now":         {},
	"right now":   {},
	"currently":   {},
	"asap":        {},
	"immediately": {},
}

// IsNow 是否为当前时刻
func (w TimeWindow) IsNow() bool {
	_, ok := nowLabels[NormalizeBucket(w.Label)]
	return ok
}

// Bucket 预测时间段标签
func (w TimeWindow) Bucket() string {
	return NormalizeBucket(w.Label)
}

// MarshalText 以标签文本输出
func (w TimeWindow) MarshalText() ([]byte, error) {
	return []byte(w.Label), nil
}

// UnmarshalText 解析标签文本
func (w *TimeWindow) UnmarshalText(text []byte) error {
	w.Label = NormalizeBucket(string(text))
	return nil
}

func (w TimeWindow) String() string {
	if w.IsNow() {
		return "now"
	}
	return w.Bucket()
}

// Criteria 引擎输入的结构化查询条件，所有字段可选
type Criteria struct {
	DeskType DeskType   `json:"desk_type,omitempty"`
	Floor    *int       `json:"floor,omitempty"`
	Affinity Affinity   `json:"location_proximity"`
	Window   TimeWindow `json:"time_request"`
	Features []string   `json:"specific_features,omitempty"`
}

// FallbackCriteria 无法获取结构化条件时使用的默认条件
func FallbackCriteria() Criteria {
	return Criteria{DeskType: DeskAny}
}

// TypeConstrained 是否限制了工位类型
func (c Criteria) TypeConstrained() bool {
	return c.DeskType != "" && c.DeskType != DeskAny
}

var digitsPattern = regexp.MustCompile(`\d+`)

// ParseFloor 解析楼层："3rd"、"floor 3"、3、3.0
func ParseFloor(v any) (int, error) {
	switch f := v.(type) {
	case int:
		return f, nil
	case int64:
		return int(f), nil
	case float64:
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("floor %v is not a whole number", f)
		}
		return int(f), nil
	case string:
		m := digitsPattern.FindString(f)
		if m == "" {
			return 0, fmt.Errorf("could not parse floor %q as a number", f)
		}
		return strconv.Atoi(m)
	default:
		return 0, fmt.Errorf("unsupported floor value %v (%T)", v, v)
	}
}

// criteriaFields 提取服务约定的字段
var criteriaFields = map[string]struct{}{
	"desk_type":          {},
	"location_proximity": {},
	"floor":              {},
	"time_request":       {},
	"specific_features":  {},
}

// SanitizeCriteria 校验上游抽取结果。无法识别或格式错误的字段会被丢弃并产生警告，永不失败
func SanitizeCriteria(raw map[string]any) (Criteria, []string) {
	var (
		c        Criteria
		warnings []string
	)

	unknown := make([]string, 0)
	for key := range raw {
		if _, ok := criteriaFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		warnings = append(warnings, fmt.Sprintf("dropped unrecognized criteria field %q", key))
	}

	if v, ok := raw["desk_type"]; ok && v != nil {
		if s, ok := v.(string); ok {
			if t := NormalizeDeskType(s); t != "" {
				c.DeskType = t
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("dropped malformed desk_type %v", v))
		}
	}

	if v, ok := raw["floor"]; ok && v != nil {
		floor, err := ParseFloor(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped floor: %v", err))
		} else {
			c.Floor = &floor
		}
	}

	if v, ok := raw["location_proximity"]; ok && v != nil {
		if s, ok := v.(string); ok {
			c.Affinity = ParseAffinity(s)
		} else {
			warnings = append(warnings, fmt.Sprintf("dropped malformed location_proximity %v", v))
		}
	}

	if v, ok := raw["time_request"]; ok && v != nil {
		if s, ok := v.(string); ok {
			c.Window = TimeWindow{Label: NormalizeBucket(s)}
		} else {
			warnings = append(warnings, fmt.Sprintf("dropped malformed time_request %v", v))
		}
	}

	if v, ok := raw["specific_features"]; ok && v != nil {
		features, err := parseFeatures(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped specific_features: %v", err))
		} else {
			c.Features = features
		}
	}

	return c, warnings
}

func parseFeatures(v any) ([]string, error) {
	var out []string
	switch f := v.(type) {
	case string:
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []string:
		for _, part := range f {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range f {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("feature %v is not a string", item)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported features value %v (%T)", v, v)
	}
	return out, nil
}
