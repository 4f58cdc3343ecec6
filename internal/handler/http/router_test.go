package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerTestSecret = "test-secret-key-for-jwt"

type roleAuthorizer struct{}

func (roleAuthorizer) Authorize(_ context.Context, caller user.Caller, module permission.Module, capability permission.Capability) error {
	if permission.Allows(permission.Resolve(caller.Role, nil), module, capability) {
		return nil
	}
	return fmt.Errorf("%w: required '%s:%s'", permission.ErrCapabilityDenied, module, capability)
}

type stubPunchService struct {
	punch.PunchService
	lastRequest punch.PunchRequest
	hadFile     bool
	lastBreakID string
	err         error
}

func (s *stubPunchService) PunchIn(_ context.Context, req punch.PunchRequest) (punch.PunchRecordResponse, error) {
	s.lastRequest = req
	s.hadFile = req.File != nil
	return punch.PunchRecordResponse{ID: "p1", Status: punch.StatePunchedIn}, s.err
}

func (s *stubPunchService) EndBreak(_ context.Context, breakID string) (punch.PunchRecordResponse, error) {
	s.lastBreakID = breakID
	return punch.PunchRecordResponse{ID: "p1"}, s.err
}

func (s *stubPunchService) GetAll(_ context.Context, filter punch.LogFilter) (punch.ListPunchResponse, error) {
	return punch.ListPunchResponse{Records: []punch.PunchRecordResponse{}}, s.err
}

type stubReportService struct {
	report.ReportService
}

func (stubReportService) ExportPunchesCSV(_ context.Context, req report.ExportPunchesRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "date,employee_id\n2024-05-13,emp-1\n")
	return err
}

type routerFixture struct {
	router http.Handler
	jwt    jwt.Service
	punch  *stubPunchService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	jwtService := jwt.NewJWTService(routerTestSecret, "1h")
	punchService := &stubPunchService{}
	authorizer := roleAuthorizer{}

	router := NewRouter(RouterConfig{
		JWTService:        jwtService,
		Authorizer:        authorizer,
		PunchHandler:      NewPunchHandler(punchService),
		PermissionHandler: NewPermissionHandler(nil),
		ReportHandler:     NewReportHandler(stubReportService{}),
		StreamHandler:     NewStreamHandler(sse.NewHub(), jwtService, authorizer),
	})
	return &routerFixture{router: router, jwt: jwtService, punch: punchService}
}

func (f *routerFixture) do(t *testing.T, req *http.Request, role user.Role) *httptest.ResponseRecorder {
	t.Helper()
	if role != "" {
		token, _, err := f.jwt.GenerateAccessToken("user-"+string(role), role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHeartbeat(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPunchInRequiresAuthentication(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPunchInRequiresCapability(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", nil), user.RoleStudent)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"].(map[string]interface{})["message"], "employee_punches:add")
}

func TestPunchInJSON(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"fingerprint":"fp-1","location":{"latitude":-6.2,"longitude":106.8}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := f.do(t, req, user.RoleEmployee)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.punch.lastRequest.Fingerprint)
	assert.Equal(t, "fp-1", *f.punch.lastRequest.Fingerprint)
	assert.Equal(t, -6.2, *f.punch.lastRequest.Location.Latitude)
	assert.False(t, f.punch.hadFile)
}

func TestPunchInEmptyBody(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", nil), user.RoleEmployee)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPunchInMultipart(t *testing.T) {
	f := newRouterFixture(t)

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("data", `{"location":{"latitude":1,"longitude":2}}`))
	part, err := mw.CreateFormFile("photo", "selfie.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := f.do(t, req, user.RoleEmployee)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, f.punch.hadFile)
	assert.Equal(t, "selfie.jpg", f.punch.lastRequest.FileHeader.Filename)
	assert.Equal(t, 2.0, *f.punch.lastRequest.Location.Longitude)
}

func TestPunchInMalformedJSON(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")

	rec := f.do(t, req, user.RoleEmployee)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPunchInErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"conflict", fmt.Errorf("failed to punch in: %w", punch.ErrAlreadyPunchedIn), http.StatusConflict},
		{"stale write", fmt.Errorf("failed to punch in: %w", punch.ErrConcurrentModification), http.StatusConflict},
		{"validation", validator.ValidationErrors{{Field: "location.latitude", Message: "invalid"}}, http.StatusUnprocessableEntity},
		{"unreadable photo", fmt.Errorf("failed to punch in: %w", validator.ValidationErrors{{Field: "photo", Message: "photo is not a readable jpg or png image"}}), http.StatusUnprocessableEntity},
		{"inactive account", user.ErrUserInactive, http.StatusForbidden},
		{"internal", fmt.Errorf("failed to punch in: %w", io.ErrUnexpectedEOF), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.punch.err = tt.err

			rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", nil), user.RoleEmployee)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	t.Run("conflict message is the domain message", func(t *testing.T) {
		f := newRouterFixture(t)
		f.punch.err = fmt.Errorf("failed to punch in: %w", punch.ErrAlreadyPunchedIn)

		rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/punch-in", nil), user.RoleEmployee)
		body := decodeBody(t, rec)
		assert.Equal(t, punch.ErrAlreadyPunchedIn.Error(), body["error"].(map[string]interface{})["message"])
	})
}

func TestEndBreakPassesBreakID(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/break/b-42/end", nil), user.RoleEmployee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b-42", f.punch.lastBreakID)
}

func TestGetAllIsPrivileged(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/employee-attendance/all", nil), user.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/employee-attendance/all", nil), user.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportPunches(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/punches/export?from=2024-05-01&to=2024-05-31", nil), user.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "2024-05-13,emp-1")

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/punches/export?from=bad", nil), user.RoleAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/punches/export", nil), user.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStreamTokenAndRejectedStream(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/employee-attendance/stream/token", nil), user.RoleEmployee)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.EqualValues(t, 300, data["expires_in"])

	// An access token is not accepted as a stream token
	access, _, err := f.jwt.GenerateAccessToken("user-1", user.RoleEmployee)
	require.NoError(t, err)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/employee-attendance/stream?token="+access, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
