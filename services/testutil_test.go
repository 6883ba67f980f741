package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/choyeojeong/sanbon-attendance-system/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// in-memory sqlite 는 커넥션마다 DB가 따로 생긴다
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Lesson{},
		&models.User{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type pushRecord struct {
	Token, Title, Body string
}

// 테스트용 Pusher — 실제 전송 없이 호출만 기록
type fakePusher struct {
	sent []pushRecord
}

func (f *fakePusher) Enqueue(token, title, body string) {
	f.sent = append(f.sent, pushRecord{Token: token, Title: title, Body: body})
}

func seedStudent(t *testing.T, db *gorm.DB, s *models.Student) *models.Student {
	t.Helper()
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return s
}

func seedLesson(t *testing.T, db *gorm.DB, l *models.Lesson) *models.Lesson {
	t.Helper()
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	return l
}
