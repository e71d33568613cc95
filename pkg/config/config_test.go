package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "AUTH_MODE", "PROJECT_LIST_CAP", "MESSAGE_LIST_CAP", "PUBSUB_TOPIC", "CORS_ORIGINS", "AUDIT_RETENTION"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeFirebase, cfg.AuthMode)
	assert.Equal(t, 50, cfg.ProjectListCap)
	assert.Equal(t, 100, cfg.MessageListCap)
	assert.Empty(t, cfg.PubSubTopic)
	assert.Equal(t, 90*24*time.Hour, cfg.AuditRetention)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("PROJECT_LIST_CAP", "20")
	t.Setenv("MESSAGE_LIST_CAP", "not-a-number")
	t.Setenv("PUBSUB_TOPIC", "projects/studio/topics/project-changes")
	t.Setenv("CORS_ORIGINS", "https://a.fr, https://b.fr ,")
	t.Setenv("AUDIT_RETENTION", "720h")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
	assert.Equal(t, 20, cfg.ProjectListCap)
	assert.Equal(t, 100, cfg.MessageListCap)
	assert.Equal(t, "project-changes", cfg.PubSubTopic)
	assert.Equal(t, []string{"https://a.fr", "https://b.fr"}, cfg.CORSOrigins)
	assert.Equal(t, 720*time.Hour, cfg.AuditRetention)
}
