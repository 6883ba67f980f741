package models

import (
	"fmt"
	"time"
)

// 수업 종류
type LessonType string

const (
	TypeOneToOne LessonType = "일대일"
	TypeReading  LessonType = "독해"
	TypeMemo     LessonType = "메모" // 시간표 칸에만 띄우는 메모 전용 행
)

// 출결 상태 — 닫힌 집합. 지각 분수는 LateMinutes 에 따로 둔다.
type LessonStatus string

const (
	StatusNone           LessonStatus = ""
	StatusPresent        LessonStatus = "출석"
	StatusLate           LessonStatus = "지각"
	StatusAbsentMakeup   LessonStatus = "결석(보강O)"
	StatusAbsentNoMakeup LessonStatus = "결석(보강X)"
	StatusMakeup         LessonStatus = "보강"
)

func (s LessonStatus) IsAbsent() bool {
	return s == StatusAbsentMakeup || s == StatusAbsentNoMakeup
}

func (s LessonStatus) IsAttendance() bool {
	return s == StatusPresent || s == StatusLate
}

type Lesson struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	StudentID uint       `json:"student_id" gorm:"index"` // 메모 행은 0
	Teacher   string     `json:"teacher" gorm:"size:50;index"`
	Date      string     `json:"date" gorm:"size:10;not null;index"` // YYYY-MM-DD
	Time      string     `json:"time" gorm:"size:5"`                 // HH:MM
	Type      LessonType `json:"type" gorm:"size:10;not null"`

	Status      LessonStatus `json:"status" gorm:"size:20"`
	LateMinutes int          `json:"late_minutes"`

	// 결석 사유 (구조화 필드 — 링크용 문자열 파싱은 더 이상 하지 않는다)
	Reason string `json:"reason" gorm:"size:200"`

	// 보강 행이 원결석 수업을 가리키는 링크. unique → 결석 1건당 보강 1건
	OriginLessonID *uint  `json:"origin_lesson_id" gorm:"uniqueIndex"`
	OriginDate     string `json:"origin_date" gorm:"size:10"`

	// 자유 메모 (화면 표시용 — 링크/사유의 원본이 아님)
	Memo    string `json:"memo" gorm:"type:text"`
	AppMemo string `json:"app_memo" gorm:"type:text"` // 학부모 앱에 보이는 메모

	MakeupTestTime string `json:"makeup_test_time" gorm:"size:5"`

	CheckIn  string `json:"check_in" gorm:"size:5"`  // 실제 등원 HH:MM
	CheckOut string `json:"check_out" gorm:"size:5"` // 예정시작 + 90분

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 화면에 쓰는 상태 문자열. 지각이면 분수까지 붙인다: "출석(지각12분)"
func (l *Lesson) StatusText() string {
	switch l.Status {
	case StatusPresent:
		return "출석(정시)"
	case StatusLate:
		return fmt.Sprintf("출석(지각%d분)", l.LateMinutes)
	default:
		return string(l.Status)
	}
}
