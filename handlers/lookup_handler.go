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
)

// 학부모/학생용 출결 조회 — 이름 + 전화번호로 본인 확인 (로그인 없음)
type LookupHandler struct{}

func NewLookupHandler() *LookupHandler { return &LookupHandler{} }

type lookupReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// POST /lookup — 이름/전화번호가 모두 일치하는 학생을 찾는다
func (h *LookupHandler) Find(c echo.Context) error {
	var req lookupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var student models.Student
	err := database.DB.
		Where("name = ? AND phone = ?", req.Name, req.Phone).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error": "NOT_FOUND", "message": "학생 정보를 찾을 수 없습니다.",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":   student.ID,
		"name": student.Name,
	})
}

// GET /lookup/:id/lessons?start=YYYY-MM-DD — 주간(7일) 출결 내역
func (h *LookupHandler) WeekLessons(c echo.Context) error {
	start := strings.TrimSpace(c.QueryParam("start"))
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_START_DATE"})
	}
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, startDate.AddDate(0, 0, i).Format("2006-01-02"))
	}

	var rows []models.Lesson
	if err := database.DB.
		Where("student_id = ? AND date IN ?", c.Param("id"), dates).
		Order("date ASC, time ASC").
		Find(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	// 학부모 화면에는 상태 표기 문자열과 앱메모까지만 노출
	type entry struct {
		Date       string `json:"date"`
		Time       string `json:"time"`
		Type       string `json:"type"`
		StatusText string `json:"status_text"`
		AppMemo    string `json:"app_memo"`
		CheckIn    string `json:"check_in"`
		Late       bool   `json:"late"`
	}
	out := make([]entry, 0, len(rows))
	for _, l := range rows {
		out = append(out, entry{
			Date:       l.Date,
			Time:       l.Time,
			Type:       string(l.Type),
			StatusText: l.StatusText(),
			AppMemo:    l.AppMemo,
			CheckIn:    l.CheckIn,
			Late:       l.Status == models.StatusLate,
		})
	}
	return c.JSON(http.StatusOK, out)
}
