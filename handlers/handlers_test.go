package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/choyeojeong/sanbon-attendance-system/database"
	"github.com/choyeojeong/sanbon-attendance-system/models"
	"github.com/choyeojeong/sanbon-attendance-system/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Lesson{},
		&models.User{},
		&models.Notification{},
	))
	database.DB = db
	return db
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func TestMarkAbsentEndpointCreatesMakeup(t *testing.T) {
	db := setupTestDB(t)
	ledger := services.NewLedger(db, nil)
	att := NewAttendanceHandler(ledger)

	student := models.Student{Name: "김민준", Teacher: "이선생"}
	require.NoError(t, db.Create(&student).Error)
	lesson := models.Lesson{
		StudentID: student.ID, Teacher: "이선생", Date: "2025-06-04", Time: "16:00",
		Type: models.TypeOneToOne,
	}
	require.NoError(t, db.Create(&lesson).Error)

	rec := doJSON(t, att.MarkAbsent, http.MethodPost, "/lessons/1/absent",
		`{"reason":"감기","makeup":true,"makeup_date":"2025-06-07","makeup_time":"11:00"}`,
		map[string]string{"id": "1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var makeup models.Lesson
	require.NoError(t, db.Where("origin_lesson_id = ?", lesson.ID).First(&makeup).Error)
	assert.Equal(t, models.StatusMakeup, makeup.Status)
	assert.Equal(t, "2025-06-07", makeup.Date)
}

func TestMarkAbsentEndpointRequiresMakeupDate(t *testing.T) {
	db := setupTestDB(t)
	att := NewAttendanceHandler(services.NewLedger(db, nil))

	rec := doJSON(t, att.MarkAbsent, http.MethodPost, "/lessons/1/absent",
		`{"reason":"감기","makeup":true}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MAKEUP_DATE_REQUIRED", body["error"])
}

func TestMoveMakeupEndpointWithoutMakeupConflicts(t *testing.T) {
	db := setupTestDB(t)
	att := NewAttendanceHandler(services.NewLedger(db, nil))

	lesson := models.Lesson{
		StudentID: 1, Date: "2025-06-04", Time: "16:00", Type: models.TypeOneToOne,
		Status: models.StatusAbsentNoMakeup,
	}
	require.NoError(t, db.Create(&lesson).Error)

	rec := doJSON(t, att.MoveMakeup, http.MethodPost, "/lessons/1/move-makeup",
		`{"date":"2025-06-10","time":"15:00"}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListDayIncludesMakeupLink(t *testing.T) {
	db := setupTestDB(t)
	ledger := services.NewLedger(db, nil)
	lsn := NewLessonHandler(ledger)

	student := models.Student{Name: "박서연", Teacher: "이선생"}
	require.NoError(t, db.Create(&student).Error)
	lesson := models.Lesson{
		StudentID: student.ID, Teacher: "이선생", Date: "2025-06-04", Time: "16:00",
		Type: models.TypeOneToOne,
	}
	require.NoError(t, db.Create(&lesson).Error)
	require.NoError(t, ledger.MarkAbsent(lesson.ID, services.AbsentInput{
		Reason: "감기", WantsMakeup: true, MakeupDate: "2025-06-07", MakeupTime: "11:00",
	}))

	rec := doJSON(t, lsn.ListDay, http.MethodGet, "/lessons?teacher=이선생&date=2025-06-04", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "결석(보강O)", out[0]["status_text"])
	require.NotNil(t, out[0]["makeup"])
	makeup := out[0]["makeup"].(map[string]any)
	assert.Equal(t, "2025-06-07", makeup["date"])
}

func TestUpsertSlotMemo(t *testing.T) {
	db := setupTestDB(t)
	lsn := NewLessonHandler(services.NewLedger(db, nil))

	rec := doJSON(t, lsn.UpsertSlotMemo, http.MethodPost, "/lessons/memo",
		`{"teacher":"이선생","date":"2025-06-04","time":"16:40","memo":"상담 예정"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// 같은 칸은 새 행 없이 수정
	rec = doJSON(t, lsn.UpsertSlotMemo, http.MethodPost, "/lessons/memo",
		`{"teacher":"이선생","date":"2025-06-04","time":"16:40","memo":"상담 완료"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Lesson{}).
		Where("type = ?", models.TypeMemo).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var row models.Lesson
	require.NoError(t, db.Where("type = ?", models.TypeMemo).First(&row).Error)
	assert.Equal(t, "상담 완료", row.Memo)
}

func TestLookupFindAndWeekLessons(t *testing.T) {
	db := setupTestDB(t)
	lookup := NewLookupHandler()

	student := models.Student{Name: "이도윤", Phone: "01055556666"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&models.Lesson{
		StudentID: student.ID, Date: "2025-06-04", Time: "16:00", Type: models.TypeOneToOne,
		Status: models.StatusLate, LateMinutes: 7, CheckIn: "16:07",
	}).Error)

	rec := doJSON(t, lookup.Find, http.MethodPost, "/lookup",
		`{"name":"이도윤","phone":"01055556666"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, lookup.Find, http.MethodPost, "/lookup",
		`{"name":"이도윤","phone":"01000000000"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, lookup.WeekLessons, http.MethodGet,
		"/lookup/1/lessons?start=2025-06-02", "", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "출석(지각7분)", out[0]["status_text"])
	assert.Equal(t, true, out[0]["late"])
}

func TestStudentCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	std := NewStudentHandler(services.NewScheduler(db))

	rec := doJSON(t, std.Create, http.MethodPost, "/students",
		`{"name":"","first_day":"2025-06-04","one_day":"수","one_class_time":"16:00"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body["error"])

	rec = doJSON(t, std.Create, http.MethodPost, "/students",
		`{"name":"김민준","teacher":"이선생","first_day":"2025-06-04","one_day":"수","one_class_time":"16:00"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// 등록과 동시에 수업이 생성된다
	var count int64
	require.NoError(t, db.Model(&models.Lesson{}).Count(&count).Error)
	assert.Greater(t, count, int64(300))
}
