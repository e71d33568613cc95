package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"studio-admin-backend/internal/message/domain"
	"studio-admin-backend/internal/message/repository"
	"studio-admin-backend/pkg/fuzzy"
	"studio-admin-backend/pkg/livequery"

	"go.uber.org/zap"
)

// searchBodyRunes is how much of a message body Search looks at
const searchBodyRunes = 500

// MessageUsecase defines the read side of contact messages plus the read flag
type MessageUsecase interface {
	// State returns the live message list, newest first
	State() MessageState

	// Search fuzzy-matches live messages by sender and body
	Search(query string) []domain.Message

	// MarkAsRead sets the read flag and refreshes the live list on success
	MarkAsRead(ctx context.Context, id string) error

	// MarkAsUnread clears the read flag and refreshes the live list on success
	MarkAsUnread(ctx context.Context, id string) error

	// Refresh forces a resubscription of the live message list
	Refresh() uint64

	// Changes notifies when the live list or its status changes
	Changes() (<-chan struct{}, func())
}

// MessageState is the consumer read contract for messages
type MessageState struct {
	Messages  []domain.Message `json:"messages"`
	Loading   bool             `json:"loading"`
	Error     *string          `json:"error"`
	Unread    int              `json:"unread"`
	Epoch     uint64           `json:"epoch"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// MessageSync is the live message list, satisfied by *livequery.Synchronizer[domain.Message]
type MessageSync interface {
	State() livequery.State[domain.Message]
	Refresh() uint64
	Listen() (<-chan struct{}, func())
}

type messageUsecase struct {
	live   MessageSync
	repo   repository.MessageRepository
	logger *zap.Logger
}

// NewMessageUsecase creates a new instance of messageUsecase
func NewMessageUsecase(live MessageSync, repo repository.MessageRepository, logger *zap.Logger) MessageUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &messageUsecase{live: live, repo: repo, logger: logger}
}

func (u *messageUsecase) State() MessageState {
	st := u.live.State()
	state := MessageState{
		Messages:  st.Items,
		Loading:   st.Loading,
		Unread:    domain.CountUnread(st.Items),
		Epoch:     st.Epoch,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Err != "" {
		msg := st.Err
		state.Error = &msg
	}
	return state
}

func (u *messageUsecase) Search(query string) []domain.Message {
	items := u.live.State().Items
	if query == "" {
		return items
	}

	type scored struct {
		message domain.Message
		score   float64
	}
	var matches []scored
	for _, m := range items {
		body := snippet(m.Body, searchBodyRunes)
		if !fuzzy.Match(query, m.Name, m.Email, body) {
			continue
		}
		matches = append(matches, scored{
			message: m,
			score: fuzzy.Score(query,
				fuzzy.Field{Text: m.Name, Weight: 1.0},
				fuzzy.Field{Text: m.Email, Weight: 0.6},
				fuzzy.Field{Text: body, Weight: 0.3},
			),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	results := make([]domain.Message, len(matches))
	for i, m := range matches {
		results[i] = m.message
	}
	return results
}

func (u *messageUsecase) MarkAsRead(ctx context.Context, id string) error {
	return u.setRead(ctx, id, true)
}

func (u *messageUsecase) MarkAsUnread(ctx context.Context, id string) error {
	return u.setRead(ctx, id, false)
}

func (u *messageUsecase) setRead(ctx context.Context, id string, read bool) error {
	if id == "" {
		return domain.ErrEmptyID
	}
	if err := u.repo.SetRead(ctx, id, read); err != nil {
		u.logger.Warn("set message read flag failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("set read flag on message %s: %w", id, err)
	}
	u.live.Refresh()
	return nil
}

func (u *messageUsecase) Refresh() uint64 {
	return u.live.Refresh()
}

func (u *messageUsecase) Changes() (<-chan struct{}, func()) {
	return u.live.Listen()
}

// snippet returns at most n runes of s
func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
