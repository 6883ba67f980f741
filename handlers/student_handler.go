package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/database"
	"github.com/choyeojeong/sanbon-attendance-system/models"
	"github.com/choyeojeong/sanbon-attendance-system/services"
)

type StudentHandler struct {
	sched *services.Scheduler
}

func NewStudentHandler(sched *services.Scheduler) *StudentHandler {
	return &StudentHandler{sched: sched}
}

// ===== Validation (학생 등록 폼 기준) =====
var (
	stuRePhone = regexp.MustCompile(`^[0-9\- ]{9,15}$`)
	stuReTime  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var weekdaySet = map[string]bool{
	"월": true, "화": true, "수": true, "목": true, "금": true, "토": true, "일": true,
}

type studentPayload struct {
	Name            string            `json:"name"`
	School          string            `json:"school"`
	Grade           string            `json:"grade"`
	Teacher         string            `json:"teacher"`
	Phone           string            `json:"phone"`
	ParentPhone     string            `json:"parent_phone"`
	PushToken       string            `json:"push_token"`
	FirstDay        string            `json:"first_day"` // YYYY-MM-DD
	OneDay          string            `json:"one_day"`
	OneTestTime     string            `json:"one_test_time"`
	OneClassTime    string            `json:"one_class_time"`
	ReadingSchedule map[string]string `json:"reading_schedule"`
}

func (p *studentPayload) normalize() {
	trim := strings.TrimSpace
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.School = trim(p.School)
	p.Grade = trim(p.Grade)
	p.Teacher = trim(p.Teacher)
	p.Phone = trim(p.Phone)
	p.ParentPhone = trim(p.ParentPhone)
	p.PushToken = trim(p.PushToken)
	p.FirstDay = trim(p.FirstDay)
	p.OneDay = trim(p.OneDay)
	p.OneTestTime = trim(p.OneTestTime)
	p.OneClassTime = trim(p.OneClassTime)
}

func validateStudent(p *studentPayload) map[string]string {
	errs := map[string]string{}

	if p.Name == "" {
		errs["name"] = "이름을 입력해주세요"
	}
	if p.FirstDay == "" {
		errs["first_day"] = "첫수업일을 입력해주세요"
	} else if _, err := time.Parse("2006-01-02", p.FirstDay); err != nil {
		errs["first_day"] = "첫수업일은 YYYY-MM-DD 형식이어야 합니다"
	}
	if !weekdaySet[p.OneDay] {
		errs["one_day"] = "일대일 요일을 선택해주세요"
	}
	if !stuReTime.MatchString(p.OneClassTime) {
		errs["one_class_time"] = "일대일 수업 시간은 HH:MM 형식이어야 합니다"
	}
	if p.OneTestTime != "" && !stuReTime.MatchString(p.OneTestTime) {
		errs["one_test_time"] = "test 시간은 HH:MM 형식이어야 합니다"
	}
	if p.Phone != "" && !stuRePhone.MatchString(p.Phone) {
		errs["phone"] = "전화번호 형식이 올바르지 않습니다"
	}
	if p.ParentPhone != "" && !stuRePhone.MatchString(p.ParentPhone) {
		errs["parent_phone"] = "학부모 전화번호 형식이 올바르지 않습니다"
	}
	for day, timeSlot := range p.ReadingSchedule {
		if !weekdaySet[day] || !stuReTime.MatchString(timeSlot) {
			errs["reading_schedule"] = "독해 스케줄은 요일별 HH:MM 형식이어야 합니다"
			break
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (p *studentPayload) apply(s *models.Student) {
	s.Name = p.Name
	s.School = p.School
	s.Grade = p.Grade
	s.Teacher = p.Teacher
	s.Phone = p.Phone
	s.ParentPhone = p.ParentPhone
	s.PushToken = p.PushToken
	s.FirstDay = p.FirstDay
	s.OneDay = p.OneDay
	s.OneTestTime = p.OneTestTime
	s.OneClassTime = p.OneClassTime
	s.ReadingSchedule = datatypes.NewJSONType(models.ReadingSchedule(p.ReadingSchedule))
}

// ===== Handlers =====

// GET /students?q=
func (h *StudentHandler) List(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))

	tx := database.DB.Model(&models.Student{})
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name LIKE ? OR school LIKE ? OR teacher LIKE ?", like, like, like)
	}

	var items []models.Student
	if err := tx.Order("name ASC").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, items)
}

// GET /students/:id
func (h *StudentHandler) Get(c echo.Context) error {
	var s models.Student
	if err := database.DB.First(&s, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, s)
}

// POST /students — 등록과 동시에 첫수업일부터 7년치 수업 생성
func (h *StudentHandler) Create(c echo.Context) error {
	var p studentPayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_PAYLOAD"})
	}
	p.normalize()
	if errs := validateStudent(&p); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": errs})
	}

	var s models.Student
	p.apply(&s)
	if err := database.DB.Create(&s).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := h.sched.GenerateLessons(&s, s.FirstDay); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "LESSON_GENERATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, s)
}

// PUT /students/:id — 오늘 이후 수업만 지우고 새 스케줄로 재생성.
// 지난 수업 기록은 손대지 않는다.
func (h *StudentHandler) Update(c echo.Context) error {
	var existing models.Student
	if err := database.DB.First(&existing, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}

	var p studentPayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_PAYLOAD"})
	}
	p.normalize()
	if errs := validateStudent(&p); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": errs})
	}

	p.apply(&existing)
	if err := database.DB.Save(&existing).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	from := time.Now().Format("2006-01-02")
	if existing.FirstDay > from {
		from = existing.FirstDay
	}
	if err := h.sched.RegenerateFrom(&existing, from); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "LESSON_GENERATE_FAILED"})
	}
	return c.JSON(http.StatusOK, existing)
}

// DELETE /students/:id?withdraw_date=YYYY-MM-DD — 퇴원 처리.
// 퇴원일 이후 수업을 함께 삭제한다.
func (h *StudentHandler) Delete(c echo.Context) error {
	withdrawDate := strings.TrimSpace(c.QueryParam("withdraw_date"))
	if withdrawDate == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "WITHDRAW_DATE_REQUIRED"})
	}
	if _, err := time.Parse("2006-01-02", withdrawDate); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_WITHDRAW_DATE"})
	}

	id := atoiOr(c.Param("id"), 0)
	if id <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	if err := h.sched.Withdraw(uint(id), withdrawDate); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /teachers — 학생 명단에서 담당 선생님 목록 추출
func (h *StudentHandler) Teachers(c echo.Context) error {
	var teachers []string
	if err := database.DB.Model(&models.Student{}).
		Where("teacher <> ''").
		Distinct("teacher").
		Order("teacher ASC").
		Pluck("teacher", &teachers).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, teachers)
}
