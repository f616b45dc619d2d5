package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

// Refresher 定期从底层数据源重新加载快照并缓存。
// 最近一次加载失败时 Snapshot 返回该错误，不回退到旧快照。
type Refresher struct {
	source   Source
	interval time.Duration
	logger   *logrus.Logger

	// 缓存
	snapshot   *models.Snapshot
	lastErr    error
	loadedAt   time.Time
	cacheMutex sync.RWMutex

	// 控制
	stopChan chan struct{}
	running  bool
	runMutex sync.Mutex
}

// NewRefresher 创建带缓存的数据源
func NewRefresher(source Source, interval time.Duration, logger *logrus.Logger) *Refresher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Refresher{
		source:   source,
		interval: interval,
		logger:   logger,
		lastErr:  fmt.Errorf("%w: inventory not loaded yet", models.ErrDataAccess),
	}
}

// Start 立即加载一次，然后按间隔刷新，直到ctx取消或调用Stop。
// Stop 之后可以再次 Start。
func (r *Refresher) Start(ctx context.Context) error {
	r.runMutex.Lock()
	if r.running {
		r.runMutex.Unlock()
		return fmt.Errorf("inventory refresher is already running")
	}
	r.running = true
	stopChan := make(chan struct{})
	r.stopChan = stopChan
	r.runMutex.Unlock()

	defer func() {
		r.runMutex.Lock()
		// Stop 已经复位，或者新一轮 Start 已接管
		if r.stopChan == stopChan {
			r.running = false
		}
		r.runMutex.Unlock()
	}()

	r.logger.Infof("Starting inventory refresher with interval: %v", r.interval)

	if err := r.Refresh(ctx); err != nil {
		r.logger.Errorf("Initial inventory load failed: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Inventory refresher stopped by context")
			return ctx.Err()

		case <-stopChan:
			r.logger.Info("Inventory refresher stopped")
			return nil

		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Errorf("Failed to refresh inventory: %v", err)
			}
		}
	}
}

// Stop 停止刷新
func (r *Refresher) Stop() error {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()

	if !r.running {
		return fmt.Errorf("inventory refresher is not running")
	}

	close(r.stopChan)
	r.running = false
	return nil
}

// Refresh 执行一次加载并替换缓存
func (r *Refresher) Refresh(ctx context.Context) error {
	startTime := time.Now()
	snapshot, err := r.source.Snapshot(ctx)

	r.cacheMutex.Lock()
	defer r.cacheMutex.Unlock()

	if err != nil {
		r.snapshot = nil
		r.lastErr = err
		return err
	}

	r.snapshot = snapshot
	r.lastErr = nil
	r.loadedAt = startTime

	r.logger.WithFields(logrus.Fields{
		"desks":    len(snapshot.Desks),
		"duration": time.Since(startTime),
	}).Debug("Inventory refreshed")
	return nil
}

// Snapshot 实现 Source，返回最近一次成功加载的快照
func (r *Refresher) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.cacheMutex.RLock()
	defer r.cacheMutex.RUnlock()

	if r.lastErr != nil {
		return nil, r.lastErr
	}
	return r.snapshot, nil
}

// LoadedAt 最近一次成功加载的时间
func (r *Refresher) LoadedAt() time.Time {
	r.cacheMutex.RLock()
	defer r.cacheMutex.RUnlock()
	return r.loadedAt
}
