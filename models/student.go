package models

import (
	"time"

	"gorm.io/datatypes"
)

// 독해 수업 스케줄: 요일("월".."일") -> 시작시간 "HH:MM"
type ReadingSchedule map[string]string

type Student struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:50;not null;index"`
	School      string `json:"school" gorm:"size:50"`
	Grade       string `json:"grade" gorm:"size:20"`
	Teacher     string `json:"teacher" gorm:"size:50;index"`
	Phone       string `json:"phone" gorm:"size:20;index"`
	ParentPhone string `json:"parent_phone" gorm:"size:20"`

	// 학부모 앱 푸시 토큰 (없으면 알림 생략)
	PushToken string `json:"push_token" gorm:"size:200"`

	// 첫수업일 YYYY-MM-DD — 이 날짜 기준으로 수업을 생성한다
	FirstDay string `json:"first_day" gorm:"size:10;not null"`

	// 일대일 수업: 요일 + test/수업 시간
	OneDay       string `json:"one_day" gorm:"size:4;not null"`
	OneTestTime  string `json:"one_test_time" gorm:"size:5"`
	OneClassTime string `json:"one_class_time" gorm:"size:5;not null"`

	ReadingSchedule datatypes.JSONType[ReadingSchedule] `json:"reading_schedule"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
