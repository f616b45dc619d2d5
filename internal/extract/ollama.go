package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

const generatePath = "/api/generate"

// OllamaConfig Ollama客户端配置
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	PingTimeout time.Duration
}

// Ollama 通过本地Ollama服务抽取条件
type Ollama struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	pingTimeout time.Duration
	logger      *logrus.Logger
}

// NewOllama 创建Ollama抽取器；BaseURL 可带或不带 /api/generate 后缀
func NewOllama(cfg OllamaConfig, logger *logrus.Logger) *Ollama {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	base = strings.TrimSuffix(base, generatePath)

	return &Ollama{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     base,
		model:       cfg.Model,
		pingTimeout: cfg.PingTimeout,
		logger:      logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Extract 实现 Extractor
func (o *Ollama) Extract(ctx context.Context, text string) (models.Criteria, []string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: BuildPrompt(text),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: encode request: %w", ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: build request: %w", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/json")

	o.logger.WithFields(logrus.Fields{"model": o.model, "url": o.baseURL + generatePath}).Debug("Requesting criteria extraction")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: call %s: %w", ErrExtraction, o.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: read response: %w", ErrExtraction, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Criteria{}, nil, fmt.Errorf("%w: status %d: %s", ErrExtraction, resp.StatusCode, truncate(string(body), 200))
	}

	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: decode response envelope: %w", ErrExtraction, err)
	}
	if strings.TrimSpace(generated.Response) == "" {
		return models.Criteria{}, nil, fmt.Errorf("%w: response field is empty", ErrExtraction)
	}

	return ParseCriteriaJSON(generated.Response)
}

// ParseCriteriaJSON 解析模型输出的JSON对象并做字段校验
func ParseCriteriaJSON(raw string) (models.Criteria, []string, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: model output is not a JSON object: %w", ErrExtraction, err)
	}
	if fields == nil {
		return models.Criteria{}, nil, fmt.Errorf("%w: model output is null", ErrExtraction)
	}
	criteria, warnings := models.SanitizeCriteria(fields)
	return criteria, warnings, nil
}

// Ping 检查Ollama服务是否可达
func (o *Ollama) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", o.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ollama health check returned status %d", resp.StatusCode)
	}
	return nil
}

// IsTimeout 判断抽取失败是否由超时引起
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
