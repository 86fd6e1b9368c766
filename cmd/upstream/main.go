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

	"github.com/meiyue-dev/booking-manager/portal/internal/config"
	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/upstream"
	"golang.org/x/crypto/bcrypt"
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
	 * 创建替身服务并播种待首登账户
	 **********************************************/
	srvStub := upstream.NewServer(cfg)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Stub.InitialAccount.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("无法生成初始账户密码哈希", "error", err)
		return
	}
	srvStub.Seed(domain.Member{
		ID:     "tm_0001",
		Name:   cfg.Stub.InitialAccount.Name,
		Phone:  cfg.Stub.InitialAccount.Phone,
		Role:   domain.RoleAdministrator,
		Status: domain.StatusPendingPassword,
	}, passwordHash)

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Stub.Port),
		Handler:      srvStub.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动上游替身...", "port", cfg.Stub.Port, "initialAccount", cfg.Stub.InitialAccount.Phone)
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
