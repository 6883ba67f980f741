package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/choyeojeong/sanbon-attendance-system/services"
)

type KioskHandler struct {
	kiosk *services.Kiosk
}

func NewKioskHandler(kiosk *services.Kiosk) *KioskHandler {
	return &KioskHandler{kiosk: kiosk}
}

type checkInReq struct {
	Phone string `json:"phone"`
}

// POST /kiosk/check-in — 키오스크 등원 처리 (로그인 없이 접근)
func (h *KioskHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "PHONE_REQUIRED"})
	}

	res, err := h.kiosk.CheckIn(req.Phone, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]any{
				"error": "STUDENT_NOT_FOUND", "message": "전화번호에 해당하는 학생이 없습니다.",
			})
		case errors.Is(err, services.ErrDuplicatePhone):
			return c.JSON(http.StatusConflict, map[string]any{
				"error": "DUPLICATE_PHONE", "message": "같은 번호의 학생이 여러 명입니다. 데스크에 문의해주세요.",
			})
		case errors.Is(err, services.ErrNoLesson):
			return c.JSON(http.StatusNotFound, map[string]any{
				"error": "NO_ELIGIBLE_LESSON", "message": "오늘 출결 가능한 수업이 없습니다.",
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error": "CHECKIN_FAILED", "message": "출석 처리 중 오류가 발생했습니다.",
			})
		}
	}

	message := "출석 처리 완료 (정시)"
	if res.Late {
		message = fmt.Sprintf("출석 처리 완료 (지각 %d분)", res.LateMinutes)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":      message,
		"student":      res.Student.Name,
		"lesson_time":  res.Lesson.Time,
		"late":         res.Late,
		"late_minutes": res.LateMinutes,
		"check_in":     res.Lesson.CheckIn,
		"check_out":    res.Lesson.CheckOut,
	})
}
