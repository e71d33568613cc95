package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studio-admin-backend/internal/message/domain"
	"studio-admin-backend/internal/message/usecase"
	"studio-admin-backend/pkg/docstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessageUsecase struct {
	state   usecase.MessageState
	read    map[string]bool
	err     error
	query   string
	refresh uint64
}

func (m *mockMessageUsecase) State() usecase.MessageState { return m.state }
func (m *mockMessageUsecase) Search(query string) []domain.Message {
	m.query = query
	return m.state.Messages
}
func (m *mockMessageUsecase) MarkAsRead(_ context.Context, id string) error {
	return m.set(id, true)
}
func (m *mockMessageUsecase) MarkAsUnread(_ context.Context, id string) error {
	return m.set(id, false)
}
func (m *mockMessageUsecase) set(id string, read bool) error {
	if m.err != nil {
		return m.err
	}
	if m.read == nil {
		m.read = make(map[string]bool)
	}
	m.read[id] = read
	return nil
}
func (m *mockMessageUsecase) Refresh() uint64 {
	m.refresh++
	return m.refresh
}
func (m *mockMessageUsecase) Changes() (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func newTestRouter(uc usecase.MessageUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMessageHandler(uc)
	g := r.Group("/api/messages")
	g.GET("", h.GetMessages)
	g.GET("/search", h.Search)
	g.PATCH("/:id/read", h.SetRead)
	g.POST("/refresh", h.Refresh)
	return r
}

func request(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMessageHandler_GetMessages(t *testing.T) {
	uc := &mockMessageUsecase{state: usecase.MessageState{
		Messages: []domain.Message{{ID: "m1", Name: "Ana"}},
		Unread:   1,
	}}
	r := newTestRouter(uc)

	rec := request(r, http.MethodGet, "/api/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":1`)
	assert.Contains(t, rec.Body.String(), `"id":"m1"`)
}

func TestMessageHandler_SetRead(t *testing.T) {
	uc := &mockMessageUsecase{}
	r := newTestRouter(uc)

	rec := request(r, http.MethodPatch, "/api/messages/m1/read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, uc.read["m1"])

	rec = request(r, http.MethodPatch, "/api/messages/m1/read", `{"read":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, uc.read["m1"])

	rec = request(r, http.MethodPatch, "/api/messages/m1/read", `{"read":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageHandler_SetReadErrors(t *testing.T) {
	uc := &mockMessageUsecase{err: fmt.Errorf("set read flag on message m9: %w", docstore.ErrNotFound)}
	r := newTestRouter(uc)

	rec := request(r, http.MethodPatch, "/api/messages/m9/read", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	uc.err = domain.ErrEmptyID
	rec = request(r, http.MethodPatch, "/api/messages/m9/read", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageHandler_SearchAndRefresh(t *testing.T) {
	uc := &mockMessageUsecase{}
	r := newTestRouter(uc)

	assert.Equal(t, http.StatusBadRequest, request(r, http.MethodGet, "/api/messages/search", "").Code)

	rec := request(r, http.MethodGet, "/api/messages/search?q=devis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "devis", uc.query)

	rec = request(r, http.MethodPost, "/api/messages/refresh", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"epoch":1}`, rec.Body.String())
}
