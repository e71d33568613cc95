package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "studio-admin-backend/internal/auth/domain"
	"studio-admin-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockVerifier struct {
	user *authdomain.User
	err  error
	got  string
}

func (m *mockVerifier) Verify(_ context.Context, token string) (*authdomain.User, error) {
	m.got = token
	return m.user, m.err
}

type mockDeviceUsecase struct {
	registered   []string
	unregistered []string
	err          error
}

func (m *mockDeviceUsecase) RegisterDevice(userID, token, _ string) error {
	m.registered = append(m.registered, userID+":"+token)
	return m.err
}

func (m *mockDeviceUsecase) UnregisterDevice(token string) error {
	m.unregistered = append(m.unregistered, token)
	return m.err
}

func newRouter(verifier usecase.TokenVerifier, devices usecase.DeviceUsecase) *gin.Engine {
	r := gin.New()
	h := NewAuthHandler(devices)
	api := r.Group("/api", AuthMiddleware(verifier))
	api.GET("/auth/me", h.Me)
	api.POST("/devices", h.RegisterDevice)
	api.DELETE("/devices/:token", h.UnregisterDevice)
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := newRouter(&mockVerifier{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authorization header required")
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	r := newRouter(&mockVerifier{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid authorization header format")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	r := newRouter(&mockVerifier{err: usecase.ErrInvalidToken}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_SetsUser(t *testing.T) {
	verifier := &mockVerifier{user: &authdomain.User{ID: "uid-1", Email: "admin@studio.fr"}}
	r := newRouter(verifier, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good-token", verifier.got)

	var user authdomain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "uid-1", user.ID)
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	verifier := &mockVerifier{user: &authdomain.User{ID: "uid-1"}}
	r := newRouter(verifier, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me?access_token=from-query", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-query", verifier.got)
}

func TestAuthHandler_Devices(t *testing.T) {
	devices := &mockDeviceUsecase{}
	r := newRouter(&mockVerifier{user: &authdomain.User{ID: "uid-1"}}, devices)

	body, _ := json.Marshal(RegisterDeviceRequest{Token: "fcm-token", DeviceInfo: "Firefox"})
	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"uid-1:fcm-token"}, devices.registered)

	req = httptest.NewRequest(http.MethodDelete, "/api/devices/fcm-token", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"fcm-token"}, devices.unregistered)

	devices.err = errors.New("db down")
	req = httptest.NewRequest(http.MethodDelete, "/api/devices/fcm-token", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthHandler_DevicesDisabled(t *testing.T) {
	r := newRouter(&mockVerifier{user: &authdomain.User{ID: "uid-1"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader([]byte(`{"token":"x"}`)))
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	for _, tt := range []struct {
		admin bool
		want  int
	}{
		{admin: false, want: http.StatusForbidden},
		{admin: true, want: http.StatusOK},
	} {
		r := gin.New()
		r.GET("/api/projects",
			AuthMiddleware(&mockVerifier{user: &authdomain.User{ID: "uid-1", Admin: tt.admin}}),
			RequireAdmin(),
			func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		req.Header.Set("Authorization", "Bearer t")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code)
	}
}
