package api

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/internal/engine"
	"github.com/yourusername/workspace-advisor/internal/inventory"
	"github.com/yourusername/workspace-advisor/internal/metrics"
)

// Pinger LLM健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps 路由依赖
type Deps struct {
	Engine      *engine.Engine
	Source      inventory.Source
	Pinger      Pinger
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *logrus.Logger
	Version     string
}

// NewRouter 注册全部路由
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	if d.MetricsPath == "" {
		d.MetricsPath = "/metrics"
	}

	r := mux.NewRouter()

	// 健康检查接口
	r.Handle("/health", d.Metrics.Instrument("/health", healthHandler(d.Pinger, d.Source, d.Metrics, d.Version))).Methods(http.MethodGet)

	// 推荐接口
	r.Handle("/api/v1/recommendations",
		d.Metrics.Instrument("/api/v1/recommendations", recommendHandler(d.Engine, d.Logger))).Methods(http.MethodPost)

	// 数据查看接口
	r.Handle("/api/v1/spaces", d.Metrics.Instrument("/api/v1/spaces", spacesHandler(d.Source))).Methods(http.MethodGet)
	r.Handle("/api/v1/desks", d.Metrics.Instrument("/api/v1/desks", desksHandler(d.Source))).Methods(http.MethodGet)

	if d.Metrics != nil {
		r.Handle(d.MetricsPath, d.Metrics.Handler()).Methods(http.MethodGet)
	}

	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(d.Logger), handlers.PrintRecoveryStack(false))
	return recovery(handlers.LoggingHandler(d.Logger.WriterLevel(logrus.DebugLevel), r))
}
