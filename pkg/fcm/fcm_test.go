package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulticast(t *testing.T) {
	msg := multicast([]string{"a", "b"}, NotificationData{
		Title: "Nouveau message",
		Body:  "Camille Martin",
		Data:  map[string]string{"type": "message"},
		Link:  "/admin/messages",
	})

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	assert.Equal(t, "Nouveau message", msg.Notification.Title)
	assert.Equal(t, "message", msg.Data["type"])
	require.NotNil(t, msg.Webpush.FCMOptions)
	assert.Equal(t, "/admin/messages", msg.Webpush.FCMOptions.Link)
}

func TestMulticast_NoLink(t *testing.T) {
	msg := multicast([]string{"a"}, NotificationData{Title: "t"})
	assert.Nil(t, msg.Webpush.FCMOptions)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", shorten("abcdefghijklmnopqrstuvwxyz"))
}
