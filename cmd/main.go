package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/choyeojeong/sanbon-attendance-system/config"
	"github.com/choyeojeong/sanbon-attendance-system/database"
	"github.com/choyeojeong/sanbon-attendance-system/routes"
	"github.com/choyeojeong/sanbon-attendance-system/services"
)

func main() {
	cfg := config.Load()

	// DB 연결 (DB가 안 떠 있으면 즉시 종료 — early fail)
	database.Connect(cfg)

	// 푸시 아웃박스 워커
	notifier := services.NewNotifier(database.DB, cfg.PushEndpoint)
	notifier.Start()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	routes.Register(e, cfg, notifier)

	go func() {
		addr := ":" + cfg.AppPort
		log.Printf("server listening at %s", addr)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// graceful shutdown: 서버 → 워커 → DB 풀 순으로 닫는다
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	notifier.Stop()
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
