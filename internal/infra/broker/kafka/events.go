package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	domainmessages "tradehub/internal/domain/messages"
)

// MessageEvents publishes conversation events for downstream consumers
// (notification workers, analytics). Delivery is best effort: a broker
// failure is logged and the request proceeds.
type MessageEvents struct {
	Producer *Producer
	Topic    string
	Logger   *slog.Logger
}

type messageEventPayload struct {
	Event       string     `json:"event"`
	MessageID   string     `json:"message_id"`
	JobID       string     `json:"job_id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	MessageType string     `json:"message_type"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

func (e *MessageEvents) MessageSent(ctx context.Context, msg *domainmessages.Message) {
	e.publish(ctx, messageEventPayload{
		Event:       "message.sent",
		MessageID:   string(msg.ID),
		JobID:       string(msg.JobID),
		SenderID:    string(msg.SenderID),
		RecipientID: string(msg.RecipientID),
		MessageType: string(msg.Type),
		CreatedAt:   msg.CreatedAt,
	})
}

func (e *MessageEvents) MessageRead(ctx context.Context, msg *domainmessages.Message, readAt time.Time) {
	e.publish(ctx, messageEventPayload{
		Event:       "message.read",
		MessageID:   string(msg.ID),
		JobID:       string(msg.JobID),
		SenderID:    string(msg.SenderID),
		RecipientID: string(msg.RecipientID),
		MessageType: string(msg.Type),
		CreatedAt:   msg.CreatedAt,
		ReadAt:      &readAt,
	})
}

func (e *MessageEvents) publish(ctx context.Context, payload messageEventPayload) {
	if e.Producer == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Error("event encode failed", "event", payload.Event, "error", err)
		}
		return
	}
	// Keyed by job so one thread's events stay ordered within a partition.
	if err := e.Producer.Publish(ctx, e.Topic, payload.JobID, payload.Event, body); err != nil && e.Logger != nil {
		e.Logger.Error("event publish failed", "event", payload.Event, "message_id", payload.MessageID, "error", err)
	}
}
