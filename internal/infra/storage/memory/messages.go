package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
)

// MessageStore is an in-memory message log used by tests and demo mode.
type MessageStore struct {
	mu    sync.RWMutex
	items map[domainmessages.MessageID]*domainmessages.Message
	order []domainmessages.MessageID
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		items: make(map[domainmessages.MessageID]*domainmessages.Message),
	}
}

func (s *MessageStore) Insert(ctx context.Context, msg *domainmessages.Message) error {
	if msg == nil || msg.ID == "" {
		return domainmessages.ErrIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[msg.ID] = cloneMessage(msg)
	s.order = append(s.order, msg.ID)
	return nil
}

func (s *MessageStore) ByID(ctx context.Context, id domainmessages.MessageID) (*domainmessages.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.items[id]
	if !ok {
		return nil, domainmessages.ErrNotFound
	}
	return cloneMessage(msg), nil
}

func (s *MessageStore) ListByJob(ctx context.Context, jobID domainjobs.JobID, participant domainuser.ID, skip, limit int) ([]*domainmessages.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.threadLocked(jobID, participant)
	if skip < 0 {
		skip = 0
	}
	if skip >= len(thread) {
		return []*domainmessages.Message{}, nil
	}
	thread = thread[skip:]
	if limit > 0 && limit < len(thread) {
		thread = thread[:limit]
	}
	out := make([]*domainmessages.Message, 0, len(thread))
	for _, msg := range thread {
		out = append(out, cloneMessage(msg))
	}
	return out, nil
}

func (s *MessageStore) CountByJob(ctx context.Context, jobID domainjobs.JobID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, msg := range s.items {
		if msg.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) LatestInThread(ctx context.Context, jobID domainjobs.JobID, participant domainuser.ID) (*domainmessages.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread := s.threadLocked(jobID, participant)
	if len(thread) == 0 {
		return nil, domainmessages.ErrNotFound
	}
	return cloneMessage(thread[len(thread)-1]), nil
}

func (s *MessageStore) CountUnread(ctx context.Context, recipient domainuser.ID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, msg := range s.items {
		if msg.RecipientID == recipient && msg.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) CountUnreadInJob(ctx context.Context, jobID domainjobs.JobID, recipient domainuser.ID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, msg := range s.items {
		if msg.JobID == jobID && msg.RecipientID == recipient && msg.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// MarkRead transitions under the store lock, which makes the
// check-then-set atomic the same way the mongo implementation's
// conditional update does.
func (s *MessageStore) MarkRead(ctx context.Context, id domainmessages.MessageID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.items[id]
	if !ok {
		return false, domainmessages.ErrNotFound
	}
	if msg.ReadAt != nil {
		return true, nil
	}
	read := at.UTC()
	msg.Status = domainmessages.StatusRead
	msg.ReadAt = &read
	msg.UpdatedAt = read
	return false, nil
}

func (s *MessageStore) ThreadsFor(ctx context.Context, participant domainuser.ID) ([]domainmessages.ThreadActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byJob := make(map[domainjobs.JobID]*domainmessages.ThreadActivity)
	for _, msg := range s.items {
		if !msg.Involves(participant) {
			continue
		}
		activity, ok := byJob[msg.JobID]
		if !ok {
			activity = &domainmessages.ThreadActivity{JobID: msg.JobID}
			byJob[msg.JobID] = activity
		}
		activity.MessageCount++
		if msg.CreatedAt.After(activity.LastMessageAt) {
			activity.LastMessageAt = msg.CreatedAt
		}
	}

	result := make([]domainmessages.ThreadActivity, 0, len(byJob))
	for _, activity := range byJob {
		result = append(result, *activity)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	return result, nil
}

// threadLocked returns the job's messages involving the participant in
// insertion order, which tracks creation order for an append-only log.
func (s *MessageStore) threadLocked(jobID domainjobs.JobID, participant domainuser.ID) []*domainmessages.Message {
	thread := make([]*domainmessages.Message, 0)
	for _, id := range s.order {
		msg, ok := s.items[id]
		if !ok {
			continue
		}
		if msg.JobID == jobID && msg.Involves(participant) {
			thread = append(thread, msg)
		}
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})
	return thread
}

func cloneMessage(m *domainmessages.Message) *domainmessages.Message {
	if m == nil {
		return nil
	}
	copyMsg := *m
	if m.ReadAt != nil {
		readAt := *m.ReadAt
		copyMsg.ReadAt = &readAt
	}
	return &copyMsg
}

var _ domainmessages.Store = (*MessageStore)(nil)
