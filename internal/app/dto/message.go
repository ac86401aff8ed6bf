package dto

import (
	"time"

	domainmessages "tradehub/internal/domain/messages"
)

// Message is the wire shape of one conversation entry.
type Message struct {
	ID            string     `json:"id"`
	JobID         string     `json:"job_id"`
	SenderID      string     `json:"sender_id"`
	RecipientID   string     `json:"recipient_id"`
	Content       string     `json:"content"`
	MessageType   string     `json:"message_type"`
	ImageURL      string     `json:"image_url,omitempty"`
	ImageFilename string     `json:"image_filename,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ReadAt        *time.Time `json:"read_at"`
}

// MapMessage converts a domain message to its wire shape.
func MapMessage(m *domainmessages.Message) Message {
	out := Message{
		ID:            string(m.ID),
		JobID:         string(m.JobID),
		SenderID:      string(m.SenderID),
		RecipientID:   string(m.RecipientID),
		Content:       m.Content,
		MessageType:   string(m.Type),
		ImageURL:      m.ImageURL,
		ImageFilename: m.ImageFilename,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.ReadAt != nil {
		readAt := *m.ReadAt
		out.ReadAt = &readAt
	}
	return out
}

// ConversationSummary is the derived per-(job, viewer) view. OtherUser
// fields are empty when the thread has no counterpart yet (a homeowner
// thread before the first reply).
type ConversationSummary struct {
	JobID         string    `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	OtherUserID   string    `json:"other_user_id,omitempty"`
	OtherUserName string    `json:"other_user_name,omitempty"`
	OtherUserRole string    `json:"other_user_role,omitempty"`
	LastMessage   *Message  `json:"last_message"`
	UnreadCount   int64     `json:"unread_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Pagination describes the slice of a thread a response covers.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// MessagesPage bundles a thread page with its conversation summary.
type MessagesPage struct {
	Messages     []Message           `json:"messages"`
	Conversation ConversationSummary `json:"conversation"`
	Pagination   Pagination          `json:"pagination"`
}

// UnreadCount is the counter payload for the unread endpoint.
type UnreadCount struct {
	UnreadCount int64 `json:"unread_count"`
}
