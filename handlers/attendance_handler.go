package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/choyeojeong/sanbon-attendance-system/services"
)

type AttendanceHandler struct {
	ledger *services.Ledger
}

func NewAttendanceHandler(ledger *services.Ledger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger}
}

func lessonID(c echo.Context) (uint, bool) {
	id := atoiOr(c.Param("id"), 0)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func ledgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	case errors.Is(err, services.ErrNoMakeup):
		return c.JSON(http.StatusConflict, map[string]any{"error": "NO_LINKED_MAKEUP"})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, map[string]any{"error": "INVALID_STATUS_TRANSITION"})
	default:
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
}

type absentReq struct {
	Reason         string `json:"reason"`
	Makeup         bool   `json:"makeup"`
	MakeupDate     string `json:"makeup_date"`
	MakeupTime     string `json:"makeup_time"`
	MakeupTestTime string `json:"makeup_test_time"`
}

// POST /lessons/:id/absent — 결석 처리. makeup=true 면 보강 일시 필수.
func (h *AttendanceHandler) MarkAbsent(c echo.Context) error {
	id, ok := lessonID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var req absentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Makeup && (req.MakeupDate == "" || req.MakeupTime == "") {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MAKEUP_DATE_REQUIRED"})
	}

	err := h.ledger.MarkAbsent(id, services.AbsentInput{
		Reason:         req.Reason,
		WantsMakeup:    req.Makeup,
		MakeupDate:     req.MakeupDate,
		MakeupTime:     req.MakeupTime,
		MakeupTestTime: req.MakeupTestTime,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

type moveMakeupReq struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	TestTime string `json:"test_time"`
}

// POST /lessons/:id/move-makeup — 보강 이동. :id 는 원결석 수업.
func (h *AttendanceHandler) MoveMakeup(c echo.Context) error {
	id, ok := lessonID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var req moveMakeupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if req.Date == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	if err := h.ledger.MoveMakeup(id, req.Date, req.Time, req.TestTime); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// POST /lessons/:id/reset — 출결 초기화 (링크된 보강도 함께 삭제)
func (h *AttendanceHandler) Reset(c echo.Context) error {
	id, ok := lessonID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	if err := h.ledger.ResetAttendance(id); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// DELETE /lessons/:id — 단일 행 삭제
func (h *AttendanceHandler) Delete(c echo.Context) error {
	id, ok := lessonID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	if err := h.ledger.DeleteLesson(id); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
