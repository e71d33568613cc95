package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func newStreamContext(ctx context.Context) (*gin.Context, *streamRecorder) {
	gin.SetMode(gin.TestMode)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	return c, rec
}

func TestManager_DeliversToUserAndBroadcast(t *testing.T) {
	m := NewManager(zap.NewNop())
	runCtx, stopRun := context.WithCancel(context.Background())
	go m.Run(runCtx)

	c1, rec1 := newStreamContext(context.Background())
	c2, rec2 := newStreamContext(context.Background())
	done := make(chan struct{}, 2)
	go func() { m.ServeHTTP(c1, "admin-1"); done <- struct{}{} }()
	go func() { m.ServeHTTP(c2, "admin-2"); done <- struct{}{} }()

	require.Eventually(t, func() bool { return m.Clients() == 2 }, time.Second, 5*time.Millisecond)

	m.SendToUser("admin-1", "messages_changed", gin.H{"unread": 3})
	m.Broadcast("projects_changed", gin.H{"version": 7})

	// shutting the manager down closes every stream after buffered events are written
	stopRun()
	<-done
	<-done

	body1 := rec1.Body.String()
	body2 := rec2.Body.String()
	assert.Contains(t, body1, "event:messages_changed")
	assert.Contains(t, body1, `"unread":3`)
	assert.Contains(t, body1, "event:projects_changed")
	assert.NotContains(t, body2, "messages_changed")
	assert.Contains(t, body2, `"version":7`)
	assert.Equal(t, "text/event-stream", rec1.Header().Get("Content-Type"))
}

func TestManager_ClientDisconnectUnregisters(t *testing.T) {
	m := NewManager(zap.NewNop())
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go m.Run(runCtx)

	reqCtx, disconnect := context.WithCancel(context.Background())
	c, _ := newStreamContext(reqCtx)
	done := make(chan struct{})
	go func() { m.ServeHTTP(c, "admin-1"); close(done) }()

	require.Eventually(t, func() bool { return m.Clients() == 1 }, time.Second, 5*time.Millisecond)
	disconnect()
	<-done
	require.Eventually(t, func() bool { return m.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManager_SendAfterStopDoesNotBlock(t *testing.T) {
	m := NewManager(zap.NewNop())
	runCtx, stopRun := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { m.Run(runCtx); close(stopped) }()
	stopRun()
	<-stopped

	m.Broadcast("projects_changed", nil)

	c, rec := newStreamContext(context.Background())
	m.ServeHTTP(c, "admin-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
