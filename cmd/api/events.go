package api

import (
	"context"

	messageUsecase "studio-admin-backend/internal/message/usecase"
	projectUsecase "studio-admin-backend/internal/project/usecase"
)

const (
	EventProjectsChanged = "projects_changed"
	EventMessagesChanged = "messages_changed"
)

// Broadcaster is the part of the SSE manager the change bridge needs
type Broadcaster interface {
	Broadcast(name string, data interface{})
}

// ProjectsChanged tells dashboards to refetch; it carries the status, not the list
type ProjectsChanged struct {
	Epoch   uint64  `json:"epoch"`
	Version uint64  `json:"version"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
	Total   int     `json:"total"`
}

type MessagesChanged struct {
	Epoch   uint64  `json:"epoch"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
	Unread  int     `json:"unread"`
}

func forwardProjectChanges(ctx context.Context, uc projectUsecase.ProjectUsecase, b Broadcaster) {
	forward(ctx, uc.Changes, func() {
		st := uc.State()
		b.Broadcast(EventProjectsChanged, ProjectsChanged{
			Epoch:   st.Epoch,
			Version: st.Version,
			Loading: st.Loading,
			Error:   st.Error,
			Total:   len(st.Projects),
		})
	})
}

func forwardMessageChanges(ctx context.Context, uc messageUsecase.MessageUsecase, b Broadcaster) {
	forward(ctx, uc.Changes, func() {
		st := uc.State()
		b.Broadcast(EventMessagesChanged, MessagesChanged{
			Epoch:   st.Epoch,
			Loading: st.Loading,
			Error:   st.Error,
			Unread:  st.Unread,
		})
	})
}

func forward(ctx context.Context, listen func() (<-chan struct{}, func()), emit func()) {
	changes, stop := listen()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			emit()
		}
	}
}
