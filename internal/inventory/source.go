package inventory

import (
	"context"
	"fmt"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// Source 数据访问边界：返回完整物化的只读快照
type Source interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// MemorySource 基于内存快照的数据源
type MemorySource struct {
	snapshot *models.Snapshot
	err      error
}

// NewMemorySource 包装已构建的快照
func NewMemorySource(snapshot *models.Snapshot) *MemorySource {
	return &MemorySource{snapshot: snapshot}
}

// FailingSource 总是返回数据访问错误（测试与降级场景）
func FailingSource(reason string) *MemorySource {
	return &MemorySource{err: fmt.Errorf("%w: %s", models.ErrDataAccess, reason)}
}

// Snapshot 实现 Source
func (m *MemorySource) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot == nil {
		return nil, fmt.Errorf("%w: no snapshot loaded", models.ErrDataAccess)
	}
	return m.snapshot, nil
}
