package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/config"
	"github.com/choyeojeong/sanbon-attendance-system/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	// ----- 전체 스키마 AutoMigrate -----
	if err := DB.AutoMigrate(
		&models.Student{},
		&models.Lesson{},
		&models.User{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}
