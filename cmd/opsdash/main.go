package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/aggregate"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/api"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/config"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/pkg/logger"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/platform"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/stream"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/transport"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/upstream"
)

// main 是数据层守护进程的入口函数。
//
// 它负责：
// 1. 加载配置并初始化日志
// 2. 组装后端客户端、上游访问层、平台目录与聚合引擎
// 3. 建立看板事件流（patch 事件触发缓存失效）
// 4. 启动只读 HTTP 服务并处理优雅退出
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.NewDefault(cfg.App.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := transport.NewJWTGuard(transport.StaticToken(cfg.Backend.Token), appLogger)
	client := transport.NewClient(&cfg.Backend, appLogger, tokens)
	service := upstream.NewService(client, appLogger, &cfg.Cache)
	directory := platform.NewDirectory(service, appLogger)
	engine := aggregate.NewEngine(directory, service, service, cfg.Cache.DatasetTTL, appLogger)

	startStream(ctx, cfg, appLogger, engine, service, tokens)

	srv := api.NewServer(cfg, appLogger, engine, directory, service)
	httpServer := &http.Server{
		Addr:    cfg.App.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		appLogger.Info("api server listening", slog.String("addr", cfg.App.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server run failed", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", slog.String("error", err.Error()))
	}
}

// startStream 建立事件流连接。
//
// patch 事件会让聚合数据集与对应平台的订单缓存失效，下一次
// 读取时重新计算。连接失败或中途断开只记日志，不影响主流程；
// 重连交给进程管理器重启或下次部署。
func startStream(ctx context.Context, cfg *config.Config, appLogger *slog.Logger, engine *aggregate.Engine, service *upstream.Service, tokens transport.TokenSource) {
	token := ""
	if tokens != nil {
		token = tokens.Token()
	}

	h, err := stream.Open(ctx, stream.Options{
		BaseURL: cfg.Backend.BaseURL,
		Topics:  cfg.Stream.Topics,
		Token:   token,
		Logger:  appLogger,
		OnEvent: func(evt model.DashboardEvent) {
			appLogger.Debug("stream event",
				slog.Int64("cursor", evt.Cursor),
				slog.String("type", evt.Type),
				slog.String("topic", evt.Topic),
				slog.String("op", evt.Op))
			if evt.Type == "patch" {
				engine.Invalidate()
				service.ClearOrderFeed()
			}
		},
		OnOpen: func() {
			appLogger.Info("dashboard stream connected", slog.String("topics", cfg.Stream.Topics))
		},
		OnError: func(err error) {
			appLogger.Warn("dashboard stream interrupted", slog.String("error", err.Error()))
		},
	})
	if err != nil {
		appLogger.Warn("dashboard stream unavailable", slog.String("error", err.Error()))
		return
	}

	go func() {
		<-ctx.Done()
		h.Close()
	}()
}
