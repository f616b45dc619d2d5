package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Data      DataConfig      `mapstructure:"data"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Debug           bool   `mapstructure:"debug"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// LLMConfig 条件抽取服务配置
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	Enabled  bool   `mapstructure:"enabled"`
	// 秒
	Timeout     int `mapstructure:"timeout"`
	PingTimeout int `mapstructure:"ping_timeout"`
}

// DataConfig 静态数据文件配置
type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	Spaces    string `mapstructure:"spaces"`
	Desks     string `mapstructure:"desks"`
	Occupancy string `mapstructure:"occupancy"`
	Policies  string `mapstructure:"policies"`
	// 秒，0表示每个请求都重新读取文件
	RefreshSeconds int `mapstructure:"refresh_seconds"`
}

// RecommendConfig 推荐行为配置
type RecommendConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	IncludeUncertain bool    `mapstructure:"include_uncertain"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RefreshInterval 数据缓存刷新间隔
func (c DataConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// LLMTimeout 抽取超时
func (c LLMConfig) LLMTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load 加载配置文件；configPath为空时只使用默认值与环境变量
func Load(configPath string) (*Config, error) {
	return LoadWithFlags(configPath, nil)
}

// LoadWithFlags 加载配置并绑定命令行参数（参数优先级最高）
func LoadWithFlags(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 读取环境变量
	v.SetEnvPrefix("WSA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 读取配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// 解析环境变量
	processEnvVars(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Recommend.DefaultThreshold <= 0 || c.Recommend.DefaultThreshold > 100 {
		return fmt.Errorf("recommend.default_threshold must be in (0, 100], got %v", c.Recommend.DefaultThreshold)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	if c.Data.RefreshSeconds < 0 {
		return fmt.Errorf("data.refresh_seconds must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 150)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "phi3:mini")
	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.timeout", 120)
	v.SetDefault("llm.ping_timeout", 3)

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.spaces", "spaces")
	v.SetDefault("data.desks", "desks")
	v.SetDefault("data.occupancy", "occupancy")
	v.SetDefault("data.policies", "policies")
	v.SetDefault("data.refresh_seconds", 0)

	v.SetDefault("recommend.default_threshold", 80.0)
	v.SetDefault("recommend.include_uncertain", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// processEnvVars 处理原型沿用的环境变量
func processEnvVars(v *viper.Viper) {
	if apiURL := os.Getenv("OLLAMA_API_URL"); apiURL != "" {
		v.Set("llm.base_url", apiURL)
	}

	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		v.Set("llm.model", model)
	}
}

// flagKeys 命令行参数到配置键的映射
var flagKeys = map[string]string{
	"data-dir":          "data.dir",
	"llm-url":           "llm.base_url",
	"llm-model":         "llm.model",
	"no-llm":            "",
	"include-uncertain": "recommend.include_uncertain",
	"threshold":         "recommend.default_threshold",
	"log-level":         "logging.level",
	"log-format":        "logging.format",
	"port":              "server.port",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if name == "no-llm" {
			if flag.Changed && flag.Value.String() == "true" {
				v.Set("llm.enabled", false)
			}
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
