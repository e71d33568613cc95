package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	projectdomain "studio-admin-backend/internal/project/domain"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Topic publishes one message and waits for the server to accept it
type Topic interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

type pubsubTopic struct {
	topic *pubsub.Topic
}

// NewPubSubTopic binds an existing Pub/Sub topic. The topic is not created here.
func NewPubSubTopic(ctx context.Context, client *pubsub.Client, name string) (Topic, func(), error) {
	topic := client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("check topic %s: %w", name, err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("topic %s does not exist", name)
	}
	return &pubsubTopic{topic: topic}, topic.Stop, nil
}

func (t *pubsubTopic) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	res := t.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	_, err := res.Get(ctx)
	return err
}

// ProjectEvent is the payload published for every confirmed project write
type ProjectEvent struct {
	Type      string                      `json:"type"`
	ProjectID string                      `json:"project_id"`
	Actor     string                      `json:"actor,omitempty"`
	Changes   *projectdomain.ProjectPatch `json:"changes,omitempty"`
	At        time.Time                   `json:"at"`
}

// ChangePublisher forwards project mutations to a Pub/Sub topic so other services
// (static site rebuilds, caches) can react
type ChangePublisher struct {
	topic  Topic
	logger *zap.Logger
}

func NewChangePublisher(topic Topic, logger *zap.Logger) *ChangePublisher {
	return &ChangePublisher{topic: topic, logger: logger.Named("pubsub")}
}

// OnProjectMutation implements the project mutation observer
func (p *ChangePublisher) OnProjectMutation(ctx context.Context, m projectdomain.Mutation) error {
	event := ProjectEvent{
		Type:      "project." + eventVerb(m.Kind),
		ProjectID: m.ProjectID,
		Actor:     m.Actor,
		Changes:   m.Patch,
		At:        m.At,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode project event: %w", err)
	}

	attrs := map[string]string{
		"type":       event.Type,
		"project_id": m.ProjectID,
	}
	if err := p.topic.Publish(ctx, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("project event published", zap.String("type", event.Type), zap.String("project_id", m.ProjectID))
	return nil
}

func eventVerb(kind projectdomain.MutationKind) string {
	switch kind {
	case projectdomain.MutationDelete:
		return "deleted"
	case projectdomain.MutationUpdate:
		return "updated"
	}
	return string(kind)
}
