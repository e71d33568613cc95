package notification

import (
	"context"
	"fmt"
	"sync"

	authrepo "studio-admin-backend/internal/auth/repository"
	msgdomain "studio-admin-backend/internal/message/domain"
	msgusecase "studio-admin-backend/internal/message/usecase"
	"studio-admin-backend/pkg/fcm"

	"go.uber.org/zap"
)

const excerptLength = 100

// MessageFeed is the live message list the alerter watches
type MessageFeed interface {
	State() msgusecase.MessageState
	Changes() (<-chan struct{}, func())
}

// PushSender delivers a notification and returns the tokens that failed
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// MessageAlerter pushes a notification to every registered admin device when a new
// unread contact message shows up in the live list. Messages present in the first
// ready snapshot are the baseline and never alert.
type MessageAlerter struct {
	feed    MessageFeed
	devices authrepo.DeviceTokenRepository
	sender  PushSender
	logger  *zap.Logger

	mu       sync.Mutex
	seen     map[string]struct{}
	baseline bool
}

func NewMessageAlerter(feed MessageFeed, devices authrepo.DeviceTokenRepository, sender PushSender, logger *zap.Logger) *MessageAlerter {
	return &MessageAlerter{
		feed:    feed,
		devices: devices,
		sender:  sender,
		logger:  logger.Named("alerter"),
		seen:    make(map[string]struct{}),
	}
}

// Run watches the feed until ctx is done or the feed is closed
func (a *MessageAlerter) Run(ctx context.Context) {
	changes, stop := a.feed.Changes()
	defer stop()

	a.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			a.check(ctx)
		}
	}
}

func (a *MessageAlerter) check(ctx context.Context) {
	st := a.feed.State()
	if st.Loading || st.Error != nil {
		return
	}
	if fresh := a.diff(st.Messages); len(fresh) > 0 {
		a.alert(ctx, fresh)
	}
}

// diff returns the unread messages not seen before and remembers the current window
func (a *MessageAlerter) diff(messages []msgdomain.Message) []msgdomain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	var fresh []msgdomain.Message
	current := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		current[m.ID] = struct{}{}
		if _, ok := a.seen[m.ID]; ok || !a.baseline || m.Read {
			continue
		}
		fresh = append(fresh, m)
	}
	a.seen = current
	a.baseline = true
	return fresh
}

func (a *MessageAlerter) alert(ctx context.Context, fresh []msgdomain.Message) {
	tokens, err := a.devices.GetAllTokens()
	if err != nil {
		a.logger.Error("failed to load device tokens", zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		a.logger.Debug("no registered devices, skipping push", zap.Int("new_messages", len(fresh)))
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failedTokens, err := a.sender.SendToDevices(ctx, tokenStrings, buildAlert(fresh))
	if err != nil {
		a.logger.Error("failed to send push", zap.Error(err))
		return
	}

	for _, token := range failedTokens {
		if err := a.devices.DeleteToken(token); err != nil {
			a.logger.Warn("failed to delete stale token", zap.Error(err))
		}
	}
	a.logger.Info("new message alert sent",
		zap.Int("new_messages", len(fresh)),
		zap.Int("devices", len(tokenStrings)-len(failedTokens)))
}

func buildAlert(fresh []msgdomain.Message) fcm.NotificationData {
	latest := fresh[0]
	n := fcm.NotificationData{
		Title: fmt.Sprintf("New message from %s", senderName(latest)),
		Body:  excerpt(latest.Body),
		Data: map[string]string{
			"type":       "message",
			"message_id": latest.ID,
			"count":      fmt.Sprintf("%d", len(fresh)),
		},
		Link: "/admin/messages",
	}
	if len(fresh) > 1 {
		n.Title = fmt.Sprintf("%d new messages", len(fresh))
	}
	if n.Body == "" {
		n.Body = "(empty message)"
	}
	return n
}

func senderName(m msgdomain.Message) string {
	if m.Name != "" {
		return m.Name
	}
	if m.Email != "" {
		return m.Email
	}
	return "unknown sender"
}

func excerpt(body string) string {
	r := []rune(body)
	if len(r) <= excerptLength {
		return body
	}
	return string(r[:excerptLength-3]) + "..."
}
