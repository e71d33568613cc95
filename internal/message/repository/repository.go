package repository

import (
	"context"

	"studio-admin-backend/internal/message/domain"
	"studio-admin-backend/pkg/docstore"

	"go.uber.org/zap"
)

// MessagesCollection is the document store collection holding contact messages
const MessagesCollection = "messages"

// MessageRepository defines the write side of message data access
type MessageRepository interface {
	// SetRead sets the read flag of a message
	SetRead(ctx context.Context, id string, read bool) error
}

// LiveQuery returns the query backing the live message list, newest first
func LiveQuery(limit int) docstore.Query {
	if limit <= 0 {
		limit = domain.MessageListCap
	}
	return docstore.Query{
		Collection: MessagesCollection,
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      limit,
	}
}

type docstoreMessageRepository struct {
	store docstore.Store
}

// NewDocstoreMessageRepository creates a new document store backed MessageRepository
func NewDocstoreMessageRepository(store docstore.Store) MessageRepository {
	return &docstoreMessageRepository{store: store}
}

func (r *docstoreMessageRepository) SetRead(ctx context.Context, id string, read bool) error {
	return r.store.Update(ctx, MessagesCollection, id, map[string]interface{}{"read": read})
}

// MessageDecoder reshapes stored documents into messages, defaulting malformed fields
func MessageDecoder(logger *zap.Logger) func(docstore.Document) domain.Message {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(doc docstore.Document) domain.Message {
		f := docstore.NewFieldReader(doc.Data)
		m := domain.Message{
			ID:    doc.ID,
			Name:  f.String("name"),
			Email: f.String("email"),
			Body:  f.String("message"),
			Read:  f.Bool("read"),
		}
		if ts, ok := f.Time("createdAt"); ok {
			m.CreatedAt = ts
		}

		if bad := f.Malformed(); len(bad) > 0 {
			logger.Debug("message document has malformed fields",
				zap.String("id", doc.ID), zap.Strings("fields", bad))
		}
		return m
	}
}
