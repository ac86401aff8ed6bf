package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradehub/internal/domain/jobs"
	"tradehub/internal/domain/user"
)

var (
	ErrNotFound          = errors.New("messages: not found")
	ErrIDRequired        = errors.New("messages: id is required")
	ErrJobRequired       = errors.New("messages: job id is required")
	ErrSenderRequired    = errors.New("messages: sender id is required")
	ErrRecipientRequired = errors.New("messages: recipient id is required")
	ErrSelfAddressed     = errors.New("messages: sender and recipient must differ")
	ErrContentRequired   = errors.New("messages: content is required")
	ErrInvalidType       = errors.New("messages: invalid message type")
	ErrAlreadyRead       = errors.New("messages: already read")
)

type MessageID string

type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// ParseType maps a wire value to a message type. An empty value defaults
// to text, matching the send form contract.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TypeText:
		return TypeText, nil
	case TypeImage:
		return TypeImage, nil
	default:
		return "", ErrInvalidType
	}
}

type Status string

const (
	StatusSent Status = "sent"
	// StatusDelivered is reserved for transport acknowledgement and is
	// never set by this service.
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Message is one entry in a job conversation. Messages are append-only:
// after creation the only legal mutation is the read transition.
type Message struct {
	ID            MessageID
	JobID         jobs.JobID
	SenderID      user.ID
	RecipientID   user.ID
	Content       string
	Type          Type
	ImageURL      string
	ImageFilename string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReadAt        *time.Time
}

type CreateParams struct {
	ID            MessageID
	JobID         jobs.JobID
	SenderID      user.ID
	RecipientID   user.ID
	Content       string
	Type          Type
	ImageURL      string
	ImageFilename string
	CreatedAt     time.Time
}

func NewMessage(params CreateParams) (*Message, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.JobID)) == "" {
		return nil, ErrJobRequired
	}
	if strings.TrimSpace(string(params.SenderID)) == "" {
		return nil, ErrSenderRequired
	}
	if strings.TrimSpace(string(params.RecipientID)) == "" {
		return nil, ErrRecipientRequired
	}
	if params.SenderID == params.RecipientID {
		return nil, ErrSelfAddressed
	}
	msgType := params.Type
	if msgType == "" {
		msgType = TypeText
	}
	if msgType != TypeText && msgType != TypeImage {
		return nil, ErrInvalidType
	}
	content := strings.TrimSpace(params.Content)
	if content == "" && msgType == TypeText {
		return nil, ErrContentRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &Message{
		ID:            params.ID,
		JobID:         params.JobID,
		SenderID:      params.SenderID,
		RecipientID:   params.RecipientID,
		Content:       content,
		Type:          msgType,
		ImageURL:      params.ImageURL,
		ImageFilename: params.ImageFilename,
		Status:        StatusSent,
		CreatedAt:     now,
		UpdatedAt:     now,
		ReadAt:        nil,
	}, nil
}

// MarkRead performs the read transition. Status, ReadAt and UpdatedAt move
// together, exactly once; a second call returns ErrAlreadyRead and changes
// nothing.
func (m *Message) MarkRead(now time.Time) error {
	if m.Status == StatusRead {
		return ErrAlreadyRead
	}
	at := now.UTC()
	m.Status = StatusRead
	m.ReadAt = &at
	m.UpdatedAt = at
	return nil
}

// Read reports whether the recipient has read the message.
func (m *Message) Read() bool {
	return m.ReadAt != nil
}

// Involves reports whether the user is the sender or the recipient.
func (m *Message) Involves(id user.ID) bool {
	return m.SenderID == id || m.RecipientID == id
}

// Counterpart returns the participant on the other side of the message
// relative to the given viewer.
func (m *Message) Counterpart(viewer user.ID) user.ID {
	if m.RecipientID == viewer {
		return m.SenderID
	}
	return m.RecipientID
}

// ThreadActivity is one row of the per-user conversation enumeration:
// a job the user has exchanged messages on, with the time of the latest
// message and the total message count.
type ThreadActivity struct {
	JobID         jobs.JobID
	LastMessageAt time.Time
	MessageCount  int64
}

// Store is the durable, append-only message log.
//
// MarkRead must be an atomic conditional update (transition only if not
// already read) so that concurrent calls settle on a single ReadAt; it
// reports alreadyRead=true instead of an error when the transition had
// happened before.
type Store interface {
	Insert(ctx context.Context, msg *Message) error
	ByID(ctx context.Context, id MessageID) (*Message, error)

	// ListByJob returns messages in the job's thread where the given user
	// is sender or recipient, ordered by creation time ascending, with
	// skip/limit pagination.
	ListByJob(ctx context.Context, jobID jobs.JobID, participant user.ID, skip, limit int) ([]*Message, error)
	CountByJob(ctx context.Context, jobID jobs.JobID) (int64, error)

	// LatestInThread returns the most recent message in the job's thread
	// involving the user, or ErrNotFound when the thread is empty.
	LatestInThread(ctx context.Context, jobID jobs.JobID, participant user.ID) (*Message, error)

	CountUnread(ctx context.Context, recipient user.ID) (int64, error)
	CountUnreadInJob(ctx context.Context, jobID jobs.JobID, recipient user.ID) (int64, error)

	MarkRead(ctx context.Context, id MessageID, at time.Time) (alreadyRead bool, err error)

	// ThreadsFor enumerates the distinct jobs the user participates in,
	// ordered by most recent activity descending.
	ThreadsFor(ctx context.Context, participant user.ID) ([]ThreadActivity, error)
}
