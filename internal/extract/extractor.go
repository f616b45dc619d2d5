package extract

import (
	"context"
	"errors"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// ErrExtraction 上游抽取服务不可达或返回无法解析的结果
var ErrExtraction = errors.New("criteria extraction failed")

// Extractor 将自由文本请求转换为结构化条件。
// 返回的warnings记录被丢弃的字段；error总是包装ErrExtraction。
type Extractor interface {
	Extract(ctx context.Context, text string) (models.Criteria, []string, error)
}

// Static 返回固定条件的抽取器（CLI离线模式与测试使用）
type Static struct {
	Criteria models.Criteria
	Warnings []string
	Err      error
}

// Extract 实现 Extractor
func (s Static) Extract(_ context.Context, _ string) (models.Criteria, []string, error) {
	if s.Err != nil {
		return models.Criteria{}, nil, s.Err
	}
	return s.Criteria, s.Warnings, nil
}

// Raw 从已解码的JSON对象构建抽取器，经过与LLM输出相同的校验
func Raw(fields map[string]any) Static {
	criteria, warnings := models.SanitizeCriteria(fields)
	return Static{Criteria: criteria, Warnings: warnings}
}
