package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/yourusername/workspace-advisor/internal/api"
	"github.com/yourusername/workspace-advisor/internal/config"
	"github.com/yourusername/workspace-advisor/internal/engine"
	"github.com/yourusername/workspace-advisor/internal/extract"
	"github.com/yourusername/workspace-advisor/internal/inventory"
	"github.com/yourusername/workspace-advisor/internal/logging"
	"github.com/yourusername/workspace-advisor/internal/metrics"
)

const version = "1.0.0"

func main() {
	flags := pflag.NewFlagSet("workspace-advisor", pflag.ExitOnError)
	configPath := flags.String("config", "./configs/config.yaml", "config file path")
	flags.String("data-dir", "", "directory holding spaces/desks/occupancy/policies files")
	flags.Int("port", 0, "HTTP port")
	flags.Bool("no-llm", false, "disable criteria extraction; every query uses default criteria")
	flags.String("log-level", "", "log level")
	_ = flags.Parse(os.Args[1:])

	// 加载配置
	cfg, err := config.LoadWithFlags(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logger.Info("Starting workspace advisor...")
	logger.Infof("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Data dir: %s", cfg.Data.Dir)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// 1. 数据源
	files := inventory.NewFileSource(inventory.FilesConfig{
		Dir:       cfg.Data.Dir,
		Spaces:    cfg.Data.Spaces,
		Desks:     cfg.Data.Desks,
		Occupancy: cfg.Data.Occupancy,
		Policies:  cfg.Data.Policies,
	}, logger)

	var source inventory.Source = files
	var refresher *inventory.Refresher
	if interval := cfg.Data.RefreshInterval(); interval > 0 {
		refresher = inventory.NewRefresher(files, interval, logger)
		source = refresher
		go func() {
			if err := refresher.Start(context.Background()); err != nil {
				logger.Errorf("Inventory refresher exited: %v", err)
			}
		}()
	} else if _, err := files.Snapshot(context.Background()); err != nil {
		logger.Warnf("Inventory data not loadable yet, requests will fail until it is: %v", err)
	}

	// 2. 条件抽取
	var extractor extract.Extractor
	var pinger api.Pinger
	if cfg.LLM.Enabled {
		ollama := extract.NewOllama(extract.OllamaConfig{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Timeout:     cfg.LLM.LLMTimeout(),
			PingTimeout: time.Duration(cfg.LLM.PingTimeout) * time.Second,
		}, logger)
		extractor = ollama
		pinger = ollama

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ollama.Ping(ctx); err != nil {
			logger.Warnf("Could not connect to Ollama at %s (model %s): %v. Queries will fall back to default criteria until it is reachable.",
				cfg.LLM.BaseURL, cfg.LLM.Model, err)
			m.SetLLMUp(false)
		} else {
			logger.Infof("Ollama reachable at %s, model %s", cfg.LLM.BaseURL, cfg.LLM.Model)
			m.SetLLMUp(true)
		}
		cancel()
	} else {
		logger.Info("Criteria extraction is disabled in config")
	}

	// 3. 引擎
	eng := engine.New(source, extractor, engine.Config{
		DefaultThreshold: cfg.Recommend.DefaultThreshold,
		IncludeUncertain: cfg.Recommend.IncludeUncertain,
		ExtractTimeout:   cfg.LLM.LLMTimeout(),
		Logger:           logger,
		Metrics:          m,
	})

	// 4. HTTP路由
	router := api.NewRouter(api.Deps{
		Engine:      eng,
		Source:      source,
		Pinger:      pinger,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		Logger:      logger,
		Version:     version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 5. 启动服务器 (在goroutine中)
	go func() {
		logger.Infof("HTTP Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 6. 优雅关闭处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if refresher != nil {
		if err := refresher.Stop(); err != nil {
			logger.Warnf("Failed to stop inventory refresher: %v", err)
		}
	}

	logger.Info("Server exited")
}
