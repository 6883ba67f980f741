package services

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoMakeup          = errors.New("no linked makeup lesson")
	ErrDuplicatePhone    = errors.New("duplicate phone number")
	ErrNoLesson          = errors.New("no eligible lesson")
)

// 알림 발송은 출결 처리와 분리 — 큐에 넣기만 하고 결과를 기다리지 않는다.
type Pusher interface {
	Enqueue(token, title, body string)
}

type Ledger struct {
	db   *gorm.DB
	push Pusher
}

func NewLedger(db *gorm.DB, push Pusher) *Ledger {
	return &Ledger{db: db, push: push}
}

type AbsentInput struct {
	Reason         string
	WantsMakeup    bool
	MakeupDate     string // YYYY-MM-DD
	MakeupTime     string // HH:MM
	MakeupTestTime string
}

// 구형 데이터용: 메모에 박혀 있던 사유 추출
var reasonRe = regexp.MustCompile(`사유:\s?(.+)`)

// MarkAbsent 결석 처리. 보강O면 기존 보강을 지우고 새 보강 행을 같은
// 트랜잭션 안에서 생성한다 (결석 1건당 보강 1건 유지).
func (lg *Ledger) MarkAbsent(lessonID uint, in AbsentInput) error {
	var lesson models.Lesson
	if err := lg.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	// 미처리 상태이거나, 이미 결석인 건의 재수정만 허용.
	// 출석/지각/보강 행을 결석으로 덮어쓰는 것은 막는다.
	if lesson.Status != models.StatusNone && !lesson.Status.IsAbsent() {
		return ErrInvalidTransition
	}

	status := models.StatusAbsentNoMakeup
	if in.WantsMakeup {
		status = models.StatusAbsentMakeup
	}

	err := lg.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":       status,
			"reason":       in.Reason,
			"memo":         fmt.Sprintf("사유: %s", in.Reason),
			"late_minutes": 0,
		}
		if err := tx.Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(updates).Error; err != nil {
			return err
		}

		if !in.WantsMakeup {
			return nil
		}

		if err := deleteLinkedMakeups(tx, &lesson); err != nil {
			return err
		}
		makeup := models.Lesson{
			StudentID:      lesson.StudentID,
			Teacher:        lesson.Teacher,
			Date:           in.MakeupDate,
			Time:           in.MakeupTime,
			Type:           lesson.Type,
			Status:         models.StatusMakeup,
			Reason:         in.Reason,
			OriginLessonID: &lesson.ID,
			OriginDate:     lesson.Date,
			Memo:           fmt.Sprintf("원결석일: %s / 사유: %s", lesson.Date, in.Reason),
			MakeupTestTime: in.MakeupTestTime,
		}
		return tx.Create(&makeup).Error
	})
	if err != nil {
		return err
	}

	lg.notifyParent(lesson.StudentID, "결석 처리 알림", func(name string) string {
		return fmt.Sprintf("%s 학생이 %s 수업에 결석 처리되었습니다.", name, lesson.Time)
	})
	return nil
}

// MoveMakeup 보강 이동. 원결석 수업을 받아 링크된 보강을 새 일시로 옮긴다.
// 사유는 결석 행의 구조화 필드에서 가져오고, 구형 데이터는 메모 파싱으로
// 보충한다 (파싱 실패 시 빈 사유로 진행).
func (lg *Ledger) MoveMakeup(lessonID uint, date, timeSlot, testTime string) error {
	var lesson models.Lesson
	if err := lg.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if _, err := lg.LinkedMakeup(&lesson); err != nil {
		return err
	}

	reason := lesson.Reason
	if reason == "" {
		if m := reasonRe.FindStringSubmatch(lesson.Memo); m != nil {
			reason = m[1]
		}
	}

	err := lg.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteLinkedMakeups(tx, &lesson); err != nil {
			return err
		}
		makeup := models.Lesson{
			StudentID:      lesson.StudentID,
			Teacher:        lesson.Teacher,
			Date:           date,
			Time:           timeSlot,
			Type:           lesson.Type,
			Status:         models.StatusMakeup,
			Reason:         reason,
			OriginLessonID: &lesson.ID,
			OriginDate:     lesson.Date,
			Memo:           fmt.Sprintf("원결석일: %s / 사유: %s", lesson.Date, reason),
			MakeupTestTime: testTime,
		}
		return tx.Create(&makeup).Error
	})
	if err != nil {
		return err
	}

	lg.notifyParent(lesson.StudentID, "보강 이동 알림", func(name string) string {
		return fmt.Sprintf("%s 학생의 보강 수업이 %s %s로 이동되었습니다.", name, date, timeSlot)
	})
	return nil
}

// ResetAttendance 출결 초기화. 링크된 보강을 지우고 본 수업의 상태/메모를
// 비운다. 결석(보강O) 처리의 완전한 역연산.
func (lg *Ledger) ResetAttendance(lessonID uint) error {
	var lesson models.Lesson
	if err := lg.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return lg.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteLinkedMakeups(tx, &lesson); err != nil {
			return err
		}
		updates := map[string]any{
			"status":       models.StatusNone,
			"late_minutes": 0,
			"reason":       "",
			"memo":         "",
			"check_in":     "",
			"check_out":    "",
		}
		return tx.Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(updates).Error
	})
}

// DeleteLesson 단일 행 삭제. 링크된 보강은 건드리지 않는다 (초기화와 달리
// 연쇄 삭제하지 않음 — 기획 확인 전까지 기존 동작 유지).
func (lg *Ledger) DeleteLesson(lessonID uint) error {
	res := lg.db.Delete(&models.Lesson{}, lessonID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkedMakeup 결석 수업에 링크된 보강 행을 찾는다. 링크 컬럼이 비어 있는
// 구형 데이터는 메모 역참조로 한 번 더 찾는다.
func (lg *Ledger) LinkedMakeup(lesson *models.Lesson) (*models.Lesson, error) {
	var m models.Lesson
	err := lg.db.Where("origin_lesson_id = ?", lesson.ID).First(&m).Error
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = lg.db.
		Where("memo LIKE ?", "%원결석일: "+lesson.Date+"%").
		Where("student_id = ? AND teacher = ? AND type = ? AND status = ?",
			lesson.StudentID, lesson.Teacher, lesson.Type, models.StatusMakeup).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMakeup
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// 링크 + 구형 메모 역참조를 모두 지워 결석 1건당 보강 1건을 보장한다.
func deleteLinkedMakeups(tx *gorm.DB, lesson *models.Lesson) error {
	if err := tx.Where("origin_lesson_id = ?", lesson.ID).Delete(&models.Lesson{}).Error; err != nil {
		return err
	}
	return tx.
		Where("memo LIKE ?", "%원결석일: "+lesson.Date+"%").
		Where("student_id = ? AND teacher = ? AND type = ? AND status = ?",
			lesson.StudentID, lesson.Teacher, lesson.Type, models.StatusMakeup).
		Delete(&models.Lesson{}).Error
}

// 토큰 등록된 학부모에게만 보낸다. 실패해도 출결 처리에는 영향 없음.
func (lg *Ledger) notifyParent(studentID uint, title string, body func(name string) string) {
	if lg.push == nil {
		return
	}
	var student models.Student
	if err := lg.db.First(&student, studentID).Error; err != nil {
		return
	}
	if student.PushToken == "" {
		return
	}
	lg.push.Enqueue(student.PushToken, title, body(student.Name))
}
