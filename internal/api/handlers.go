package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/internal/engine"
	"github.com/yourusername/workspace-advisor/internal/inventory"
	"github.com/yourusername/workspace-advisor/internal/metrics"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

// RecommendRequest 推荐请求体
type RecommendRequest struct {
	Query            string         `json:"query"`
	Criteria         map[string]any `json:"criteria,omitempty"`
	IncludeUncertain *bool          `json:"include_uncertain,omitempty"`
}

// loadTimer 可报告最近一次加载时间的数据源
type loadTimer interface {
	LoadedAt() time.Time
}

// healthHandler 健康检查处理函数，同时刷新 LLM 可达性指标
func healthHandler(pinger Pinger, source inventory.Source, m *metrics.Metrics, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		llm := "disabled"
		if pinger != nil {
			err := pinger.Ping(r.Context())
			m.SetLLMUp(err == nil)
			if err != nil {
				llm = "unreachable"
			} else {
				llm = "reachable"
			}
		}

		body := map[string]interface{}{
			"status":    "healthy",
			"llm":       llm,
			"timestamp": time.Now().UTC(),
			"version":   version,
		}
		if lt, ok := source.(loadTimer); ok {
			if loadedAt := lt.LoadedAt(); !loadedAt.IsZero() {
				body["inventory_loaded_at"] = loadedAt.UTC()
			} else {
				body["inventory_loaded_at"] = nil
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// recommendHandler 推荐处理函数
func recommendHandler(eng *engine.Engine, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request RecommendRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		if err := dec.Decode(&request); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if request.Query == "" && request.Criteria == nil {
			writeError(w, http.StatusBadRequest, "query or criteria is required")
			return
		}

		req := engine.Request{
			Query:            request.Query,
			IncludeUncertain: request.IncludeUncertain,
		}
		if request.Criteria != nil {
			// 结构化条件与抽取结果走同一套清洗规则
			criteria, warnings := models.SanitizeCriteria(request.Criteria)
			req.Criteria = &criteria
			req.CriteriaWarnings = warnings
		}

		result, err := eng.Recommend(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataAccess):
				logger.WithError(err).Error("Recommendation aborted")
				writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Workspace data is unavailable: %v", err))
			case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
				// 客户端已断开，不返回部分结果
				logger.WithError(err).Debug("Recommendation cancelled")
			default:
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("Recommendation failed: %v", err))
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// spacesHandler 空间层级处理函数，支持 ?parent=<id>&type=<kind> 过滤
func spacesHandler(source inventory.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := source.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Workspace data is unavailable: %v", err))
			return
		}

		query := r.URL.Query()
		parent := query.Get("parent")
		kind := models.SpaceKind(strings.ToLower(query.Get("type")))
		if kind != "" && !kind.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown space type: %s", kind))
			return
		}

		var nodes []models.SpaceNode
		switch {
		case parent != "":
			if _, ok := snapshot.Hierarchy.Node(parent); !ok {
				writeError(w, http.StatusNotFound, fmt.Sprintf("Space not found: %s", parent))
				return
			}
			if kind == "" {
				writeError(w, http.StatusBadRequest, "type is required with parent")
				return
			}
			nodes = snapshot.Hierarchy.Children(parent, kind)
		default:
			for _, node := range snapshot.Hierarchy.Nodes() {
				if kind == "" || node.Kind == kind {
					nodes = append(nodes, node)
				}
			}
		}
		if nodes == nil {
			nodes = []models.SpaceNode{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"spaces": nodes,
			"count":  len(nodes),
		})
	}
}

// desksHandler 工位列表处理函数
func desksHandler(source inventory.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := source.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Workspace data is unavailable: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"desks":  snapshot.Desks,
			"count":  len(snapshot.Desks),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}
