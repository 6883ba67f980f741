package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/models"
)

const (
	horizonYears    = 7   // 첫수업일 기준 생성 범위
	insertBatchSize = 500 // 대량 insert 배치 크기
)

const dateLayout = "2006-01-02"

// 요일 문자 -> time.Weekday (일요일 = 0)
var dayIndex = map[string]time.Weekday{
	"일": time.Sunday,
	"월": time.Monday,
	"화": time.Tuesday,
	"수": time.Wednesday,
	"목": time.Thursday,
	"금": time.Friday,
	"토": time.Saturday,
}

type Scheduler struct {
	db *gorm.DB
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{db: db}
}

// GenerateLessons 학생의 주간 스케줄대로 수업 행을 만든다.
// from 이후(당일 포함) 첫 요일부터 매주 1행, 첫수업일 + 7년까지.
func (s *Scheduler) GenerateLessons(student *models.Student, from string) error {
	start, err := time.Parse(dateLayout, student.FirstDay)
	if err != nil {
		return fmt.Errorf("invalid first_day %q: %w", student.FirstDay, err)
	}
	fromDate := start
	if from != "" {
		fromDate, err = time.Parse(dateLayout, from)
		if err != nil {
			return fmt.Errorf("invalid from date %q: %w", from, err)
		}
	}
	end := start.AddDate(horizonYears, 0, 0)

	var rows []models.Lesson
	appendWeekly := func(day, timeSlot string, typ models.LessonType) {
		wd, ok := dayIndex[day]
		if !ok || timeSlot == "" {
			return
		}
		for d := firstOnOrAfter(fromDate, wd); d.Before(end); d = d.AddDate(0, 0, 7) {
			rows = append(rows, models.Lesson{
				StudentID: student.ID,
				Teacher:   student.Teacher,
				Date:      d.Format(dateLayout),
				Time:      timeSlot,
				Type:      typ,
				Status:    models.StatusNone,
			})
		}
	}

	appendWeekly(student.OneDay, student.OneClassTime, models.TypeOneToOne)
	for day, timeSlot := range student.ReadingSchedule.Data() {
		appendWeekly(day, timeSlot, models.TypeReading)
	}

	if len(rows) == 0 {
		return nil
	}
	return s.db.CreateInBatches(rows, insertBatchSize).Error
}

// RegenerateFrom 학생 정보 수정 시 호출. from 이후 수업만 지우고 다시
// 만든다 — 지난 수업은 건드리지 않는다.
func (s *Scheduler) RegenerateFrom(student *models.Student, from string) error {
	if err := s.db.
		Where("student_id = ? AND date >= ?", student.ID, from).
		Delete(&models.Lesson{}).Error; err != nil {
		return err
	}
	return s.GenerateLessons(student, from)
}

// Withdraw 퇴원 처리. 퇴원일 이후 수업을 지우고 학생 행을 삭제한다.
// 퇴원일 이전 기록은 남긴다.
func (s *Scheduler) Withdraw(studentID uint, withdrawDate string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("student_id = ? AND date >= ?", studentID, withdrawDate).
			Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Student{}, studentID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// from 당일 포함, 해당 요일의 첫 날짜.
// 첫수업일이 수요일이고 일대일이 수요일이면 첫 수업은 당일이다.
func firstOnOrAfter(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}
