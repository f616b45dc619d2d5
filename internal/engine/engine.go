package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/internal/extract"
	"github.com/yourusername/workspace-advisor/internal/inventory"
	"github.com/yourusername/workspace-advisor/internal/metrics"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

// FallbackMessage 条件无法解析时写入跟踪的说明
const FallbackMessage = "criteria could not be parsed, using defaults"

// Config 引擎配置
type Config struct {
	// 没有容量策略时的阈值（百分比）
	DefaultThreshold float64
	// 默认是否推荐uncertain工位，请求可覆盖
	IncludeUncertain bool
	// 抽取调用的超时，0表示只受请求ctx约束
	ExtractTimeout time.Duration

	Now     func() time.Time
	NewID   func() string
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
}

// Request 一次推荐请求。Criteria 非空时跳过抽取，
// CriteriaWarnings 为调用方清洗 Criteria 时产生的警告
type Request struct {
	Query            string
	Criteria         *models.Criteria
	CriteriaWarnings []string
	IncludeUncertain *bool
}

// Engine 条件匹配、可用性评估与排序流水线。
// 引擎本身无可变状态，可被多个请求并发使用。
type Engine struct {
	source    inventory.Source
	extractor extract.Extractor
	cfg       Config
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

// New 创建引擎；extractor 可为nil，此时无条件的请求使用默认条件
func New(source inventory.Source, extractor extract.Extractor, cfg Config) *Engine {
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = DefaultCapacityThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Engine{
		source:    source,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Recommend 执行 Criteria -> Filter -> Availability -> Ranking。
// 数据访问失败返回包装 models.ErrDataAccess 的错误；ctx取消时丢弃全部中间结果。
func (e *Engine) Recommend(ctx context.Context, req Request) (*models.Result, error) {
	start := time.Now()
	result := &models.Result{
		RequestID: e.cfg.NewID(),
		Query:     req.Query,
	}
	log := e.logger.WithField("request_id", result.RequestID)

	criteria, fallback := e.resolveCriteria(ctx, req, &result.Trace, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Criteria = criteria
	result.CriteriaFallback = fallback

	snapshot, err := e.source.Snapshot(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.metrics.DataAccessFailed()
		log.WithError(err).Error("Failed to load inventory snapshot")
		if !errors.Is(err, models.ErrDataAccess) {
			err = fmt.Errorf("%w: %w", models.ErrDataAccess, err)
		}
		return nil, err
	}

	policies := NewPolicyResolver(snapshot.Policies, e.cfg.DefaultThreshold)
	for _, w := range policies.Warnings() {
		result.Trace.Warn(models.StageFilter, "", "%s", w)
	}

	filtered := Filter(snapshot, criteria, policies, &result.Trace)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evaluations, err := Evaluate(ctx, filtered, AvailabilityInput{
		Snapshot: snapshot,
		Policies: policies,
		Window:   criteria.Window,
		Now:      e.cfg.Now(),
	}, &result.Trace)
	if err != nil {
		return nil, err
	}
	for _, eval := range evaluations {
		e.metrics.ObserveVerdict(string(eval.Verdict))
	}
	result.Evaluations = evaluations

	includeUncertain := e.cfg.IncludeUncertain
	if req.IncludeUncertain != nil {
		includeUncertain = *req.IncludeUncertain
	}
	result.Recommendations, result.Status = Rank(evaluations, includeUncertain, &result.Trace)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Message = summarize(result)
	e.metrics.ObserveRequest(string(result.Status), time.Since(start))

	log.WithFields(logrus.Fields{
		"status":          result.Status,
		"candidates":      len(filtered),
		"recommendations": len(result.Recommendations),
		"fallback":        fallback,
	}).Info("Recommendation completed")

	return result, nil
}

// resolveCriteria 获取并校验条件；抽取失败时降级为默认条件，不中断流水线
func (e *Engine) resolveCriteria(ctx context.Context, req Request, trace *models.Trace, log *logrus.Entry) (models.Criteria, bool) {
	if req.Criteria != nil {
		criteria := *req.Criteria
		criteria.DeskType = models.NormalizeDeskType(string(criteria.DeskType))
		for _, w := range req.CriteriaWarnings {
			trace.Warn(models.StageCriteria, "", "%s", w)
		}
		trace.Info(models.StageCriteria, "", "using structured criteria: %s", describeCriteria(criteria))
		return criteria, false
	}

	if e.extractor == nil || strings.TrimSpace(req.Query) == "" {
		trace.Warn(models.StageCriteria, "", "%s (no extraction service or empty query)", FallbackMessage)
		e.metrics.ExtractionFailed()
		return models.FallbackCriteria(), true
	}

	extractCtx := ctx
	if e.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, e.cfg.ExtractTimeout)
		defer cancel()
	}

	criteria, warnings, err := e.extractor.Extract(extractCtx, req.Query)
	if err != nil {
		e.metrics.ExtractionFailed()
		cause := "service error"
		if extract.IsTimeout(err) {
			cause = "timed out"
		}
		log.WithError(err).Warn("Criteria extraction failed, falling back to defaults")
		trace.Warn(models.StageCriteria, "", "%s (extraction %s)", FallbackMessage, cause)
		return models.FallbackCriteria(), true
	}

	for _, w := range warnings {
		trace.Warn(models.StageCriteria, "", "%s", w)
	}
	trace.Info(models.StageCriteria, "", "extracted criteria: %s", describeCriteria(criteria))
	return criteria, false
}

func describeCriteria(c models.Criteria) string {
	parts := []string{}
	if c.TypeConstrained() {
		parts = append(parts, "type="+string(c.DeskType))
	} else {
		parts = append(parts, "type=any")
	}
	if c.Floor != nil {
		parts = append(parts, fmt.Sprintf("floor=%d", *c.Floor))
	}
	if c.Affinity.Kind != models.AffinityNone {
		parts = append(parts, "proximity="+c.Affinity.String())
	}
	parts = append(parts, "time="+c.Window.String())
	if len(c.Features) > 0 {
		parts = append(parts, "features="+strings.Join(c.Features, ","))
	}
	return strings.Join(parts, " ")
}

func summarize(r *models.Result) string {
	if r.Status == models.ResultNoSuitableDesks {
		if r.CriteriaFallback {
			return FallbackMessage + "; " + NoSuitableDesksMessage
		}
		return NoSuitableDesksMessage
	}
	msg := fmt.Sprintf("found %d potentially suitable desk(s) for %s", len(r.Recommendations), r.Criteria.Window)
	if r.CriteriaFallback {
		msg = FallbackMessage + "; " + msg
	}
	return msg
}
