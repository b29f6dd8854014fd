package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"maces/backend/config"
	"maces/backend/internal/dto"
	"maces/backend/internal/model"
	"maces/backend/internal/service"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.LoginResult
	loginErr    error
	logoutErr   error
	loggedOut   *model.Session
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.LoginResult, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, sess *model.Session) error {
	m.loggedOut = sess
	return m.logoutErr
}

// ── Mock ParkService ──

type mockParkService struct {
	officer    *dto.ParkOfficerResponse
	officerErr error
	classes    []dto.ClassResponse
	classesErr error
}

func (m *mockParkService) IsParkOfficer(_ context.Context, _ *model.Session) (*dto.ParkOfficerResponse, error) {
	return m.officer, m.officerErr
}
func (m *mockParkService) ListClasses(_ context.Context) ([]dto.ClassResponse, error) {
	return m.classes, m.classesErr
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	records   []model.AttendanceRecord
	listErr   error
	lastQuery *dto.AttendanceQuery
	recordErr error
	recorded  *dto.RecordAttendanceRequest
}

func (m *mockAttendanceService) List(_ context.Context, q *dto.AttendanceQuery) ([]model.AttendanceRecord, error) {
	m.lastQuery = q
	return m.records, m.listErr
}
func (m *mockAttendanceService) Record(_ context.Context, _ *model.Session, req *dto.RecordAttendanceRequest) (string, error) {
	m.recorded = req
	if m.recordErr != nil {
		return "", m.recordErr
	}
	return "rec-1", nil
}

// ── Mock SubmissionService ──

type mockSubmissionService struct {
	result    *dto.SubmitResult
	err       error
	lastTable model.CreditTable
	called    bool
}

func (m *mockSubmissionService) SubmitBatch(_ context.Context, _ *model.Session, _ string, _ int, table model.CreditTable) (*dto.SubmitResult, error) {
	m.called = true
	m.lastTable = table
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	ics      []byte
	filename string
	err      error
}

func (m *mockExportService) ExportParkDay(_ context.Context, _ string, _ int) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportPlayerCalendar(_ context.Context, _ *model.Session) ([]byte, string, error) {
	return m.ics, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

func setSession(c *gin.Context) {
	c.Set("session", &model.Session{
		Token:     "ork-token",
		UserID:    42,
		SessionID: "test-jti",
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

// serve 注册单个路由并执行请求；withSession 模拟会话中间件
func serve(method, path string, h gin.HandlerFunc, withSession bool, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if withSession {
			setSession(c)
		}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, url string, v interface{}) *http.Request {
	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(v)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

const fullCreditData = `{"inPersonLocal":3,"inPersonOutPark":2,"onlineLocal":1,"onlineOutPark":0}`

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.LoginResult{SessionToken: "session-abc", ExpiresIn: 3600, UserID: 42}}
	h := NewAuthHandler(mock, &config.CookieConfig{Name: "maces_session", SameSite: "strict"})

	w := serve("POST", "/login", h.Login, false,
		jsonRequest("POST", "/login", dto.LoginRequest{Username: "bob", Password: "pw"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 || resp.Message != "login success" {
		t.Errorf("unexpected body: %+v", resp)
	}

	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "maces_session" {
			found = c
		}
	}
	if found == nil {
		t.Fatal("expected maces_session cookie")
	}
	if found.Value != "session-abc" || !found.HttpOnly || found.MaxAge != 3600 {
		t.Errorf("unexpected cookie: %+v", found)
	}
	if found.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", found.SameSite)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)
	w := serve("POST", "/login", h.Login, false, jsonRequest("POST", "/login", "invalid json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unreachable", fmt.Errorf("%w: dial tcp", pkgerrors.ErrTransport), http.StatusServiceUnavailable},
		{"malformed", fmt.Errorf("%w: not an object", pkgerrors.ErrProtocol), http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err}, nil)
			w := serve("POST", "/login", h.Login, false,
				jsonRequest("POST", "/login", dto.LoginRequest{Username: "bob", Password: "pw"}))
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil)

	w := serve("POST", "/logout", h.Logout, true, jsonRequest("POST", "/logout", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut == nil || mock.loggedOut.SessionID != "test-jti" {
		t.Errorf("expected session to be revoked, got %+v", mock.loggedOut)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "maces_session" && c.MaxAge >= 0 {
			t.Error("expected maces_session cookie to be cleared")
		}
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)
	w := serve("POST", "/logout", h.Logout, false, jsonRequest("POST", "/logout", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ParkHandler Tests
// ═══════════════════════════════════════════════════════════

func TestParkHandler_IsParkOfficer(t *testing.T) {
	h := NewParkHandler(&mockParkService{officer: &dto.ParkOfficerResponse{IsOfficer: true, ParkID: 9}})
	w := serve("GET", "/is_park_officer", h.IsParkOfficer, true, httptest.NewRequest("GET", "/is_park_officer", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.ParkOfficerResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Data.IsOfficer || body.Data.ParkID != 9 {
		t.Errorf("unexpected data: %+v", body.Data)
	}
}

func TestParkHandler_IsParkOfficer_Unauthenticated(t *testing.T) {
	h := NewParkHandler(&mockParkService{})
	w := serve("GET", "/is_park_officer", h.IsParkOfficer, false, httptest.NewRequest("GET", "/is_park_officer", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestParkHandler_GetClasses(t *testing.T) {
	h := NewParkHandler(&mockParkService{classes: []dto.ClassResponse{{ClassID: 1, ClassName: "Archery"}}})
	w := serve("GET", "/get_classes", h.GetClasses, true, httptest.NewRequest("GET", "/get_classes", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data []map[string]interface{} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data) != 1 || body.Data[0]["class_id"] != float64(1) || body.Data[0]["class_name"] != "Archery" {
		t.Errorf("unexpected data: %+v", body.Data)
	}
}

func TestParkHandler_GetClasses_UpstreamErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pkgerrors.ErrAuthentication, http.StatusUnauthorized},
		{pkgerrors.ErrTransport, http.StatusServiceUnavailable},
		{pkgerrors.ErrProtocol, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := NewParkHandler(&mockParkService{classesErr: tt.err})
		w := serve("GET", "/get_classes", h.GetClasses, true, httptest.NewRequest("GET", "/get_classes", nil))
		if w.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_List(t *testing.T) {
	mock := &mockAttendanceService{records: []model.AttendanceRecord{{Date: "2026-10-10", HostParkID: 9}}}
	h := NewAttendanceHandler(mock, &mockSubmissionService{})

	url := "/attendance?host_park_id=9&date=2026-10-10&event_calendar_detail_id=77&submitted=false"
	w := serve("GET", "/attendance", h.List, true, httptest.NewRequest("GET", url, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	q := mock.lastQuery
	if q.HostParkID != 9 || q.Date != "2026-10-10" {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.EventCalendarDetailID == nil || *q.EventCalendarDetailID != 77 {
		t.Errorf("expected event_calendar_detail_id=77, got %v", q.EventCalendarDetailID)
	}
	if q.Submitted == nil || *q.Submitted {
		t.Errorf("expected submitted=false, got %v", q.Submitted)
	}
}

func TestAttendanceHandler_List_Validation(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{}, &mockSubmissionService{})

	for _, url := range []string{
		"/attendance?date=2026-10-10",
		"/attendance?host_park_id=9",
		"/attendance?host_park_id=9&date=10/10/2026",
	} {
		w := serve("GET", "/attendance", h.List, true, httptest.NewRequest("GET", url, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", url, w.Code)
		}
	}
}

func TestAttendanceHandler_List_StoreError(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{listErr: pkgerrors.ErrPersistence}, &mockSubmissionService{})
	w := serve("GET", "/attendance", h.List, true,
		httptest.NewRequest("GET", "/attendance?host_park_id=9&date=2026-10-10", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func recordBody() map[string]interface{} {
	return map[string]interface{}{
		"host_park_id":        9,
		"date":                "2026-10-10",
		"class_id":            5,
		"class_name":          "Archery",
		"attending_in_person": false,
	}
}

func TestAttendanceHandler_Record_Created(t *testing.T) {
	mock := &mockAttendanceService{}
	h := NewAttendanceHandler(mock, &mockSubmissionService{})

	w := serve("POST", "/attendance", h.Record, true, jsonRequest("POST", "/attendance", recordBody()))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w).Message != "Attendance recorded successfully" {
		t.Errorf("unexpected message: %s", w.Body.String())
	}
	if mock.recorded == nil || mock.recorded.AttendingInPerson == nil || *mock.recorded.AttendingInPerson {
		t.Errorf("attending_in_person=false should bind, got %+v", mock.recorded)
	}
}

func TestAttendanceHandler_Record_MissingMode(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{}, &mockSubmissionService{})
	body := recordBody()
	delete(body, "attending_in_person")

	w := serve("POST", "/attendance", h.Record, true, jsonRequest("POST", "/attendance", body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAttendanceHandler_Record_Duplicate(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{recordErr: service.ErrAlreadyRecorded}, &mockSubmissionService{})

	w := serve("POST", "/attendance", h.Record, true, jsonRequest("POST", "/attendance", recordBody()))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if parseResponse(w).Message != "You have already submitted attendance for this event" {
		t.Errorf("unexpected message: %s", w.Body.String())
	}
}

func submitBody(credit string) string {
	return `{"date":"2026-10-10","host_park_id":9,"credit_data":` + credit + `}`
}

func TestAttendanceHandler_Submit_Success(t *testing.T) {
	sub := &mockSubmissionService{result: &dto.SubmitResult{Submitted: 2, ErroredRecords: []dto.ErroredRecord{}}}
	h := NewAttendanceHandler(&mockAttendanceService{}, sub)

	w := serve("POST", "/submit_attendance", h.Submit, true, jsonRequest("POST", "/submit_attendance", submitBody(fullCreditData)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if v, ok := sub.lastTable.Lookup(model.CreditTier{InPerson: false, Local: false}); !ok || v != 0 {
		t.Errorf("onlineOutPark=0 should bind as a present tier, got %d/%v", v, ok)
	}
}

func TestAttendanceHandler_Submit_MissingTierRejectedAtIngestion(t *testing.T) {
	sub := &mockSubmissionService{}
	h := NewAttendanceHandler(&mockAttendanceService{}, sub)

	body := submitBody(`{"inPersonLocal":3,"inPersonOutPark":2,"onlineLocal":1}`)
	w := serve("POST", "/submit_attendance", h.Submit, true, jsonRequest("POST", "/submit_attendance", body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if sub.called {
		t.Error("submission should not run with an incomplete credit table")
	}
}

func TestAttendanceHandler_Submit_PartialFailure(t *testing.T) {
	sub := &mockSubmissionService{result: &dto.SubmitResult{
		Submitted: 2,
		ErroredRecords: []dto.ErroredRecord{{
			RecordID: "rec-2", PlayerID: 7, Reason: "could not enter credits: Player is not active",
			Err: pkgerrors.ErrUpstreamRejection,
		}},
	}}
	h := NewAttendanceHandler(&mockAttendanceService{}, sub)

	w := serve("POST", "/submit_attendance", h.Submit, true, jsonRequest("POST", "/submit_attendance", submitBody(fullCreditData)))
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", w.Code)
	}
	var body struct {
		Data struct {
			ErroredRecords []map[string]interface{} `json:"errored_records"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.ErroredRecords) != 1 || body.Data.ErroredRecords[0]["record_id"] != "rec-2" {
		t.Errorf("unexpected errored_records: %s", w.Body.String())
	}
}

func TestAttendanceHandler_Submit_AllConfigurationFailures(t *testing.T) {
	sub := &mockSubmissionService{result: &dto.SubmitResult{
		ErroredRecords: []dto.ErroredRecord{{
			RecordID: "rec-1", Reason: "missing credit tier inPersonLocal",
			Err: fmt.Errorf("%w: missing credit tier inPersonLocal", pkgerrors.ErrConfiguration),
		}},
	}}
	h := NewAttendanceHandler(&mockAttendanceService{}, sub)

	w := serve("POST", "/submit_attendance", h.Submit, true, jsonRequest("POST", "/submit_attendance", submitBody(fullCreditData)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAttendanceHandler_Submit_PersistenceFailure(t *testing.T) {
	sub := &mockSubmissionService{
		result: &dto.SubmitResult{Submitted: 1},
		err:    fmt.Errorf("%w: record rec-2 credited upstream but not saved", pkgerrors.ErrPersistence),
	}
	h := NewAttendanceHandler(&mockAttendanceService{}, sub)

	w := serve("POST", "/submit_attendance", h.Submit, true, jsonRequest("POST", "/submit_attendance", submitBody(fullCreditData)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportParkDay(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "attendance_9_2026-10-10.xlsx"})

	w := serve("GET", "/attendance/export", h.ExportParkDay, true,
		httptest.NewRequest("GET", "/attendance/export?host_park_id=9&date=2026-10-10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''attendance_9_2026-10-10.xlsx" {
		t.Errorf("unexpected content disposition: %s", cd)
	}
}

func TestExportHandler_ExportParkDay_NoRecords(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoRecords})
	w := serve("GET", "/attendance/export", h.ExportParkDay, true,
		httptest.NewRequest("GET", "/attendance/export?host_park_id=9&date=2026-10-10", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestExportHandler_ExportCalendar(t *testing.T) {
	h := NewExportHandler(&mockExportService{ics: []byte("BEGIN:VCALENDAR"), filename: "attendance_42.ics"})
	w := serve("GET", "/attendance/calendar", h.ExportCalendar, true, httptest.NewRequest("GET", "/attendance/calendar", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != icsContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
}
