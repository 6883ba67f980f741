package models

import "time"

const (
	NotifyPending = "pending"
	NotifySent    = "sent"
	NotifyFailed  = "failed"
)

// 푸시 발송 아웃박스. 출결 처리와 분리해서 워커가 따로 전송한다.
type Notification struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Token string `json:"token" gorm:"size:200;not null"`
	Title string `json:"title" gorm:"size:100;not null"`
	Body  string `json:"body" gorm:"type:text"`

	Status    string     `json:"status" gorm:"size:10;not null;default:'pending';index"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error" gorm:"size:500"`
	SentAt    *time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
