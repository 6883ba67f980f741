package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/models"
)

const lessonDuration = 90 * time.Minute // 하원 시간은 예정 시작 + 90분 고정

type Kiosk struct {
	db   *gorm.DB
	push Pusher
}

func NewKiosk(db *gorm.DB, push Pusher) *Kiosk {
	return &Kiosk{db: db, push: push}
}

type CheckInResult struct {
	Student     models.Student `json:"student"`
	Lesson      models.Lesson  `json:"lesson"`
	Late        bool           `json:"late"`
	LateMinutes int            `json:"late_minutes"`
}

// CheckIn 키오스크 등원 처리. 전화번호로 학생을 찾아 오늘의 미처리
// 일대일/독해 수업에 출석을 기록한다.
//
// 같은 번호의 학생이 둘 이상이면 거절한다 — 형제가 같은 번호를 쓸 때
// 엉뚱한 학생이 출석 처리되는 것을 막기 위함.
func (k *Kiosk) CheckIn(phone string, now time.Time) (*CheckInResult, error) {
	phone = strings.TrimSpace(phone)

	var students []models.Student
	if err := k.db.Where("phone = ?", phone).Find(&students).Error; err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrNotFound
	}
	if len(students) > 1 {
		return nil, ErrDuplicatePhone
	}
	student := students[0]

	today := now.Format(dateLayout)
	var lessons []models.Lesson
	if err := k.db.
		Where("student_id = ? AND date = ? AND type IN ?",
			student.ID, today, []models.LessonType{models.TypeOneToOne, models.TypeReading}).
		Order("time ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}

	var lesson *models.Lesson
	for i := range lessons {
		if lessons[i].Status == models.StatusNone {
			lesson = &lessons[i]
			break
		}
	}
	if lesson == nil {
		return nil, ErrNoLesson
	}

	start, err := time.ParseInLocation(dateLayout+" 15:04", lesson.Date+" "+lesson.Time, now.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid lesson time %q: %w", lesson.Time, err)
	}

	late := now.After(start)
	lateMinutes := 0
	status := models.StatusPresent
	if late {
		lateMinutes = int(now.Sub(start).Minutes()) // 내림
		status = models.StatusLate
	}

	updates := map[string]any{
		"status":       status,
		"late_minutes": lateMinutes,
		"check_in":     now.Format("15:04"),
		"check_out":    start.Add(lessonDuration).Format("15:04"),
	}
	if err := k.db.Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := k.db.First(lesson, lesson.ID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if k.push != nil && student.PushToken != "" {
		k.push.Enqueue(student.PushToken, "출석 알림",
			fmt.Sprintf("%s 학생이 %s 수업에 출석했습니다.", student.Name, lesson.Time))
	}

	return &CheckInResult{
		Student:     student,
		Lesson:      *lesson,
		Late:        late,
		LateMinutes: lateMinutes,
	}, nil
}
