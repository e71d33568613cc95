package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
	logger          *zap.Logger
}

// NewClient creates a new FCM client from an initialized Firebase app
func NewClient(ctx context.Context, app *firebase.App, logger *zap.Logger) (*Client, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	logger = logger.Named("fcm")
	logger.Info("client initialized")
	return &Client{
		messagingClient: messagingClient,
		logger:          logger,
	}, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	Data  map[string]string
	// Link opened when the notification is clicked
	Link string
}

// SendToDevices sends a push notification to multiple device tokens.
// Returns the tokens that failed to receive the notification.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, multicast(tokens, notification))
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	c.logger.Info("multicast sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount))

	var failedTokens []string
	for i, resp := range response.Responses {
		if !resp.Success {
			failedTokens = append(failedTokens, tokens[i])
			c.logger.Warn("send failed", zap.String("token", shorten(tokens[i])), zap.Error(resp.Error))
		}
	}

	return failedTokens, nil
}

func multicast(tokens []string, n NotificationData) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  "/favicon.png",
			},
		},
	}
	if n.Link != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: n.Link}
	}
	return msg
}

func shorten(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
