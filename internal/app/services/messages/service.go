package messages

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradehub/internal/app/dto"
	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
)

// EventPublisher receives conversation events after they are committed.
// Implementations must tolerate being nil-checked away; event delivery is
// best effort and never fails the request.
type EventPublisher interface {
	MessageSent(ctx context.Context, msg *domainmessages.Message)
	MessageRead(ctx context.Context, msg *domainmessages.Message, readAt time.Time)
}

// Service orchestrates the messaging operations: send, thread listing,
// conversation listing, read-marking and unread counting.
type Service struct {
	Store       domainmessages.Store
	Jobs        domainjobs.Directory
	Users       domainuser.Directory
	Attachments *AttachmentHandler
	Events      EventPublisher
	Logger      *slog.Logger
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SendParams carries the send form fields plus the optional uploaded file.
type SendParams struct {
	JobID       domainjobs.JobID
	RecipientID domainuser.ID
	Content     string
	MessageType string
	File        *Upload
}

// Send authorizes the caller against the job, verifies the recipient,
// handles the optional image attachment and appends the message. If the
// message record fails to persist after the attachment was written, the
// attachment is deleted before the error surfaces.
func (s *Service) Send(ctx context.Context, caller *domainuser.User, params SendParams) (*domainmessages.Message, error) {
	if _, err := s.resolveParticipant(ctx, params.JobID, caller); err != nil {
		return nil, err
	}

	if _, err := s.Users.ByID(ctx, params.RecipientID); err != nil {
		return nil, err
	}

	msgType, err := domainmessages.ParseType(params.MessageType)
	if err != nil {
		return nil, err
	}

	attachment, err := s.Attachments.Attach(ctx, params.File, msgType)
	if err != nil {
		return nil, err
	}

	createParams := domainmessages.CreateParams{
		ID:          domainmessages.MessageID(uuid.NewString()),
		JobID:       params.JobID,
		SenderID:    caller.ID,
		RecipientID: params.RecipientID,
		Content:     params.Content,
		Type:        msgType,
		CreatedAt:   s.now(),
	}
	if attachment != nil {
		createParams.ImageURL = attachment.URL
		createParams.ImageFilename = attachment.Filename
	}

	msg, err := domainmessages.NewMessage(createParams)
	if err != nil {
		s.Attachments.Discard(ctx, attachment)
		return nil, err
	}

	if err := s.Store.Insert(ctx, msg); err != nil {
		s.Attachments.Discard(ctx, attachment)
		return nil, err
	}

	if s.Events != nil {
		s.Events.MessageSent(ctx, msg)
	}
	if s.Logger != nil {
		s.Logger.Info("message sent", "message_id", msg.ID, "job_id", msg.JobID, "sender_id", msg.SenderID, "recipient_id", msg.RecipientID, "type", msg.Type)
	}
	return msg, nil
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// ListForJob returns one page of the job's thread visible to the caller,
// together with the conversation summary and pagination metadata.
func (s *Service) ListForJob(ctx context.Context, caller *domainuser.User, jobID domainjobs.JobID, page, limit int) (dto.MessagesPage, error) {
	if _, err := s.resolveParticipant(ctx, jobID, caller); err != nil {
		return dto.MessagesPage{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	skip := (page - 1) * limit

	msgs, err := s.Store.ListByJob(ctx, jobID, caller.ID, skip, limit)
	if err != nil {
		return dto.MessagesPage{}, err
	}

	summary, err := s.Summarize(ctx, jobID, caller)
	if err != nil {
		return dto.MessagesPage{}, err
	}

	total, err := s.Store.CountByJob(ctx, jobID)
	if err != nil {
		return dto.MessagesPage{}, err
	}

	out := dto.MessagesPage{
		Messages:     make([]dto.Message, 0, len(msgs)),
		Conversation: summary,
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + int64(limit) - 1) / int64(limit),
		},
	}
	for _, msg := range msgs {
		out.Messages = append(out.Messages, dto.MapMessage(msg))
	}
	return out, nil
}

// MarkRead transitions a message to read on behalf of its recipient. The
// operation is idempotent: marking an already-read message is a no-op, not
// an error, and the original ReadAt is preserved.
func (s *Service) MarkRead(ctx context.Context, caller *domainuser.User, id domainmessages.MessageID) error {
	msg, err := s.Store.ByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.RecipientID != caller.ID {
		return ErrNotRecipient
	}

	readAt := s.now()
	alreadyRead, err := s.Store.MarkRead(ctx, id, readAt)
	if err != nil {
		return err
	}
	if alreadyRead {
		return nil
	}

	if s.Events != nil {
		s.Events.MessageRead(ctx, msg, readAt.UTC())
	}
	if s.Logger != nil {
		s.Logger.Info("message read", "message_id", msg.ID, "job_id", msg.JobID, "recipient_id", msg.RecipientID)
	}
	return nil
}

// UnreadCount totals the caller's unread messages across all jobs.
func (s *Service) UnreadCount(ctx context.Context, caller *domainuser.User) (int64, error) {
	return s.Store.CountUnread(ctx, caller.ID)
}
