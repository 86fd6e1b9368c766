package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/api"
	"github.com/meiyue-dev/booking-manager/portal/internal/config"
	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/draft"
	"github.com/meiyue-dev/booking-manager/portal/internal/handler"
	"github.com/meiyue-dev/booking-manager/portal/internal/onboarding"
	"github.com/meiyue-dev/booking-manager/portal/internal/session"
	"github.com/meiyue-dev/booking-manager/portal/internal/storage"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 打开本地持久化存储
	 **********************************************/
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("无法打开本地存储", "error", err)
		return
	}
	defer store.Close()

	/**********************************************
	 * 恢复会话和草稿两块独立区域
	 **********************************************/
	var sessState session.State
	if _, err := store.Load(storage.RegionSession, &sessState); err != nil {
		logger.Warn("会话区域恢复失败，按未登录处理", "error", err)
		sessState = session.State{}
	}
	sessionStore := session.New(store, sessState)

	var draftState domain.OnboardingPayload
	if _, err := store.Load(storage.RegionDraft, &draftState); err != nil {
		logger.Warn("草稿区域恢复失败，按空草稿处理", "error", err)
		draftState = domain.OnboardingPayload{}
	}
	draftStore := draft.New(store, draftState)

	/**********************************************
	 * 创建上游客户端和流程协调器
	 **********************************************/
	client := api.NewClient(
		cfg.Upstream.BaseURL,
		time.Duration(cfg.Upstream.RequestTimeout)*time.Second,
		sessionStore,
	)
	orchestrator := onboarding.NewOrchestrator(client, sessionStore, draftStore)
	bindFlow := onboarding.NewBindFlow(client, sessionStore, time.Duration(cfg.Bind.PollInterval)*time.Second)
	defer bindFlow.Stop()

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, sessionStore, draftStore, client, orchestrator, bindFlow)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动门户网关...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
