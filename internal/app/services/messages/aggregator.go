package messages

import (
	"context"
	"errors"

	"tradehub/internal/app/dto"
	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
)

// Summarize computes the conversation view for one (job, viewer) pair. It
// is recomputed from current store state on every call; there is no cache,
// so the view is always consistent with the latest committed message.
func (s *Service) Summarize(ctx context.Context, jobID domainjobs.JobID, viewer *domainuser.User) (dto.ConversationSummary, error) {
	job, err := s.Jobs.ByID(ctx, jobID)
	if err != nil {
		return dto.ConversationSummary{}, err
	}

	lastMessage, err := s.Store.LatestInThread(ctx, job.ID, viewer.ID)
	if err != nil && !errors.Is(err, domainmessages.ErrNotFound) {
		return dto.ConversationSummary{}, err
	}

	other, err := s.counterpart(ctx, job, viewer, lastMessage)
	if err != nil {
		return dto.ConversationSummary{}, err
	}

	unread, err := s.Store.CountUnreadInJob(ctx, job.ID, viewer.ID)
	if err != nil {
		return dto.ConversationSummary{}, err
	}

	summary := dto.ConversationSummary{
		JobID:       string(job.ID),
		JobTitle:    job.Title,
		UnreadCount: unread,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.CreatedAt,
	}
	if other != nil {
		summary.OtherUserID = string(other.ID)
		summary.OtherUserName = other.Name
		summary.OtherUserRole = string(other.Role)
	}
	if lastMessage != nil {
		mapped := dto.MapMessage(lastMessage)
		summary.LastMessage = &mapped
		summary.UpdatedAt = lastMessage.CreatedAt
	}
	return summary, nil
}

// counterpart resolves who the viewer is talking to. A tradesperson always
// talks to the job's homeowner, looked up through the directory by the
// job's recorded email. A homeowner talks to whoever is on the other side
// of the latest message; before any message exists there is no counterpart
// and nil is returned rather than pointing the homeowner at themselves.
func (s *Service) counterpart(ctx context.Context, job *domainjobs.Job, viewer *domainuser.User, lastMessage *domainmessages.Message) (*domainuser.User, error) {
	if !job.OwnedBy(viewer.Email) {
		return s.Users.ByEmail(ctx, job.Homeowner.Email)
	}
	if lastMessage == nil {
		return nil, nil
	}
	return s.Users.ByID(ctx, lastMessage.Counterpart(viewer.ID))
}

// ListConversations enumerates and summarizes every thread the caller
// participates in, most recent activity first. One thread failing to
// summarize is logged and skipped; it must not take the rest of the
// listing down with it.
func (s *Service) ListConversations(ctx context.Context, caller *domainuser.User) ([]dto.ConversationSummary, error) {
	threads, err := s.Store.ThreadsFor(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ConversationSummary, 0, len(threads))
	for _, thread := range threads {
		summary, err := s.Summarize(ctx, thread.JobID, caller)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("conversation summary failed", "job_id", thread.JobID, "user_id", caller.ID, "error", err)
			}
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
