package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/choyeojeong/sanbon-attendance-system/config"
	"github.com/choyeojeong/sanbon-attendance-system/database"
	"github.com/choyeojeong/sanbon-attendance-system/handlers"
	"github.com/choyeojeong/sanbon-attendance-system/middlewares"
	"github.com/choyeojeong/sanbon-attendance-system/services"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config, notifier *services.Notifier) {
	// ===== Services =====
	ledger := services.NewLedger(database.DB, notifier)
	sched := services.NewScheduler(database.DB)
	kiosk := services.NewKiosk(database.DB, notifier)

	// ===== Handlers =====
	auth := handlers.NewAuthHandler(cfg.JWTSecret)
	std := handlers.NewStudentHandler(sched)
	lsn := handlers.NewLessonHandler(ledger)
	att := handlers.NewAttendanceHandler(ledger)
	ki := handlers.NewKioskHandler(kiosk)
	lookup := handlers.NewLookupHandler()
	notif := handlers.NewNotificationHandler()

	// ===== Public =====
	e.GET("/health", handlers.Health)
	e.POST("/auth/login", auth.Login)

	// 키오스크 / 학부모 조회는 로그인 없이 접근 (원화면과 동일)
	e.POST("/kiosk/check-in", ki.CheckIn)
	e.POST("/lookup", lookup.Find)
	e.GET("/lookup/:id/lessons", lookup.WeekLessons)

	// ===== Protected (직원) =====
	authMW := middlewares.RequireAuth(cfg.JWTSecret)
	api := e.Group("", authMW)

	// 학생 관리
	api.GET("/students", std.List)
	api.GET("/students/:id", std.Get)
	api.POST("/students", std.Create)
	api.PUT("/students/:id", std.Update)
	api.DELETE("/students/:id", std.Delete)
	api.GET("/teachers", std.Teachers)

	// 수업 목록 / 메모
	api.GET("/lessons", lsn.ListDay)
	api.GET("/lessons/week", lsn.ListWeek)
	api.PUT("/lessons/:id/memo", lsn.UpdateMemo)
	api.POST("/lessons/memo", lsn.UpsertSlotMemo)
	api.POST("/lessons/makeup", lsn.CreateAdhocMakeup)

	// 출결 처리
	api.POST("/lessons/:id/absent", att.MarkAbsent)
	api.POST("/lessons/:id/move-makeup", att.MoveMakeup)
	api.POST("/lessons/:id/reset", att.Reset)
	api.DELETE("/lessons/:id", att.Delete)

	// 푸시 발송 내역
	api.GET("/admin/notifications", notif.List)
}
