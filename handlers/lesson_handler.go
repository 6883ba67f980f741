package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/database"
	"github.com/choyeojeong/sanbon-attendance-system/models"
	"github.com/choyeojeong/sanbon-attendance-system/services"
)

type LessonHandler struct {
	ledger *services.Ledger
}

func NewLessonHandler(ledger *services.Ledger) *LessonHandler {
	return &LessonHandler{ledger: ledger}
}

// 목록 응답에 붙이는 파생 정보
type lessonView struct {
	models.Lesson
	StatusText string         `json:"status_text"`
	Makeup     *models.Lesson `json:"makeup,omitempty"` // 결석 행에 링크된 보강
}

func (h *LessonHandler) toView(l models.Lesson) lessonView {
	v := lessonView{Lesson: l, StatusText: l.StatusText()}
	if l.Status.IsAbsent() {
		if m, err := h.ledger.LinkedMakeup(&l); err == nil {
			v.Makeup = m
		}
	}
	return v
}

// GET /lessons?teacher=&date= — 일대일 수업 관리 화면의 하루치 목록.
// 메모 전용 행도 같이 내려준다.
func (h *LessonHandler) ListDay(c echo.Context) error {
	teacher := strings.TrimSpace(c.QueryParam("teacher"))
	date := strings.TrimSpace(c.QueryParam("date"))
	if teacher == "" || date == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var rows []models.Lesson
	if err := database.DB.
		Where("teacher = ? AND date = ?", teacher, date).
		Order("time ASC, id ASC").
		Find(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	out := make([]lessonView, 0, len(rows))
	for _, l := range rows {
		out = append(out, h.toView(l))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /lessons/week?start=YYYY-MM-DD&type=독해 — 주간 보기 (독해 출결 화면).
// start 부터 7일치를 날짜별로 묶어 내려준다.
func (h *LessonHandler) ListWeek(c echo.Context) error {
	start := strings.TrimSpace(c.QueryParam("start"))
	typ := strings.TrimSpace(c.QueryParam("type"))

	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_START_DATE"})
	}
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, startDate.AddDate(0, 0, i).Format("2006-01-02"))
	}

	tx := database.DB.Where("date IN ?", dates)
	if typ != "" {
		tx = tx.Where("type = ?", typ)
	}
	var rows []models.Lesson
	if err := tx.Order("date ASC, time ASC, id ASC").Find(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	grouped := map[string][]lessonView{}
	for _, d := range dates {
		grouped[d] = []lessonView{}
	}
	for _, l := range rows {
		grouped[l.Date] = append(grouped[l.Date], h.toView(l))
	}
	return c.JSON(http.StatusOK, map[string]any{"start": start, "dates": dates, "lessons": grouped})
}

type memoReq struct {
	Memo string `json:"memo"`
}

// PUT /lessons/:id/memo — 자유 메모 수정
func (h *LessonHandler) UpdateMemo(c echo.Context) error {
	var req memoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	res := database.DB.Model(&models.Lesson{}).
		Where("id = ?", c.Param("id")).
		Update("memo", req.Memo)
	if res.Error != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": res.Error.Error()})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

type slotMemoReq struct {
	Teacher string `json:"teacher"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Memo    string `json:"memo"`
}

// POST /lessons/memo — 시간표 빈 칸 메모. 같은 칸에 메모 행이 있으면 수정,
// 없으면 메모 전용 행(type=메모)을 만든다.
func (h *LessonHandler) UpsertSlotMemo(c echo.Context) error {
	var req slotMemoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if req.Teacher == "" || req.Date == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var existing models.Lesson
	err := database.DB.
		Where("teacher = ? AND date = ? AND time = ? AND type = ?",
			req.Teacher, req.Date, req.Time, models.TypeMemo).
		First(&existing).Error
	switch {
	case err == nil:
		if err := database.DB.Model(&existing).Update("memo", req.Memo).Error; err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.Lesson{
			Teacher: req.Teacher,
			Date:    req.Date,
			Time:    req.Time,
			Type:    models.TypeMemo,
			Memo:    req.Memo,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, row)
	default:
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
}

type adhocMakeupReq struct {
	StudentID uint   `json:"student_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Memo      string `json:"memo"`
}

// POST /lessons/makeup — 결석 기록 없이 수기로 넣는 보강 (독해 화면의
// 보강 추가). 원결석 링크 없이 보강 행만 생성한다.
func (h *LessonHandler) CreateAdhocMakeup(c echo.Context) error {
	var req adhocMakeupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if req.StudentID == 0 || req.Date == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var student models.Student
	if err := database.DB.First(&student, req.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "STUDENT_NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	row := models.Lesson{
		StudentID: student.ID,
		Teacher:   student.Teacher,
		Date:      req.Date,
		Time:      req.Time,
		Type:      models.TypeReading,
		Status:    models.StatusMakeup,
		Memo:      req.Memo,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, row)
}
