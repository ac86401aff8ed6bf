package messages

import (
	"context"
	"testing"
	"time"

	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
)

func TestService_Summarize_EmptyThread(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Homeowner view before anyone replied: there is nobody on the other
	// side yet, so the counterpart fields stay empty.
	summary, err := fx.service.Summarize(ctx, fx.job.ID, fx.homeowner)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if summary.OtherUserID != "" || summary.OtherUserName != "" {
		t.Errorf("homeowner empty-thread counterpart = %q/%q, want empty", summary.OtherUserID, summary.OtherUserName)
	}
	if summary.LastMessage != nil {
		t.Errorf("LastMessage = %+v, want nil", summary.LastMessage)
	}
	if summary.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d, want 0", summary.UnreadCount)
	}
	if !summary.UpdatedAt.Equal(fx.job.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want job creation %v", summary.UpdatedAt, fx.job.CreatedAt)
	}

	// The tradesperson always talks to the homeowner, message or not.
	summary, err = fx.service.Summarize(ctx, fx.job.ID, fx.trader)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if summary.OtherUserID != string(fx.homeowner.ID) {
		t.Errorf("trader counterpart = %q, want %q", summary.OtherUserID, fx.homeowner.ID)
	}
	if summary.OtherUserRole != "homeowner" {
		t.Errorf("counterpart role = %q, want homeowner", summary.OtherUserRole)
	}
}

func TestService_Summarize_ActiveThread(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	msg, err := fx.service.Send(ctx, fx.trader, SendParams{
		JobID:       fx.job.ID,
		RecipientID: fx.homeowner.ID,
		Content:     "I can start Monday",
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	summary, err := fx.service.Summarize(ctx, fx.job.ID, fx.homeowner)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if summary.OtherUserID != string(fx.trader.ID) {
		t.Errorf("homeowner counterpart = %q, want %q", summary.OtherUserID, fx.trader.ID)
	}
	if summary.LastMessage == nil || summary.LastMessage.ID != string(msg.ID) {
		t.Fatalf("LastMessage = %+v, want %s", summary.LastMessage, msg.ID)
	}
	if summary.UnreadCount != 1 {
		t.Errorf("homeowner UnreadCount = %d, want 1", summary.UnreadCount)
	}
	if !summary.UpdatedAt.Equal(msg.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want last message %v", summary.UpdatedAt, msg.CreatedAt)
	}

	// The sender has nothing unread in this thread.
	summary, err = fx.service.Summarize(ctx, fx.job.ID, fx.trader)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if summary.UnreadCount != 0 {
		t.Errorf("trader UnreadCount = %d, want 0", summary.UnreadCount)
	}
}

func TestService_ListConversations(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	second := &domainjobs.Job{
		ID:       "job-2",
		Title:    "Repaint fence",
		Category: "decorating",
		Location: "Leeds",
		Homeowner: domainjobs.Homeowner{
			Name:  "Olivia Owner",
			Email: "owner@example.com",
		},
		CreatedAt: testEpoch.Add(time.Hour),
	}
	fx.jobs.AddJob(second)
	fx.jobs.AddQuote(domainjobs.Quote{
		ID: "quote-2", JobID: second.ID, TradespersonID: fx.trader.ID, Status: "pending", CreatedAt: second.CreatedAt,
	})

	if _, err := fx.service.Send(ctx, fx.trader, SendParams{
		JobID: fx.job.ID, RecipientID: fx.homeowner.ID, Content: "about the tap",
	}); err != nil {
		t.Fatalf("Send(job-1) error: %v", err)
	}
	if _, err := fx.service.Send(ctx, fx.trader, SendParams{
		JobID: second.ID, RecipientID: fx.homeowner.ID, Content: "about the fence",
	}); err != nil {
		t.Fatalf("Send(job-2) error: %v", err)
	}

	summaries, err := fx.service.ListConversations(ctx, fx.homeowner)
	if err != nil {
		t.Fatalf("ListConversations() error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d conversations, want 2", len(summaries))
	}
	if summaries[0].JobID != string(second.ID) {
		t.Errorf("first conversation = %s, want most recent job-2", summaries[0].JobID)
	}
	for _, s := range summaries {
		if s.UnreadCount != 1 {
			t.Errorf("conversation %s UnreadCount = %d, want 1", s.JobID, s.UnreadCount)
		}
		if s.OtherUserID != string(fx.trader.ID) {
			t.Errorf("conversation %s counterpart = %q, want trader", s.JobID, s.OtherUserID)
		}
	}

	// A user with no threads gets an empty listing, not an error.
	none, err := fx.service.ListConversations(ctx, fx.outsider)
	if err != nil {
		t.Fatalf("ListConversations(outsider) error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("outsider has %d conversations, want 0", len(none))
	}
}

func TestService_ListConversations_SkipsBrokenThread(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Send(ctx, fx.trader, SendParams{
		JobID: fx.job.ID, RecipientID: fx.homeowner.ID, Content: "about the tap",
	}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	// Plant a thread whose job the directory no longer knows about. Its
	// summary fails, but the rest of the listing must survive.
	orphan, err := domainmessages.NewMessage(domainmessages.CreateParams{
		ID:          "orphan-1",
		JobID:       "job-gone",
		SenderID:    fx.trader.ID,
		RecipientID: fx.homeowner.ID,
		Content:     "about a deleted job",
		CreatedAt:   testEpoch.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("NewMessage() error: %v", err)
	}
	if err := fx.store.Insert(ctx, orphan); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	summaries, err := fx.service.ListConversations(ctx, fx.homeowner)
	if err != nil {
		t.Fatalf("ListConversations() error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d conversations, want 1 (broken thread skipped)", len(summaries))
	}
	if summaries[0].JobID != string(fx.job.ID) {
		t.Errorf("surviving conversation = %s, want %s", summaries[0].JobID, fx.job.ID)
	}
}

func TestService_ConversationFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Tradesperson opens the thread, homeowner replies, then reads.
	opening, err := fx.service.Send(ctx, fx.trader, SendParams{
		JobID: fx.job.ID, RecipientID: fx.homeowner.ID, Content: "happy to quote for this",
	})
	if err != nil {
		t.Fatalf("Send(opening) error: %v", err)
	}
	if _, err := fx.service.Send(ctx, fx.homeowner, SendParams{
		JobID: fx.job.ID, RecipientID: fx.trader.ID, Content: "when can you visit?",
	}); err != nil {
		t.Fatalf("Send(reply) error: %v", err)
	}

	count, err := fx.service.UnreadCount(ctx, fx.homeowner)
	if err != nil || count != 1 {
		t.Fatalf("homeowner UnreadCount = %d, %v, want 1", count, err)
	}

	if err := fx.service.MarkRead(ctx, fx.homeowner, opening.ID); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	count, err = fx.service.UnreadCount(ctx, fx.homeowner)
	if err != nil || count != 0 {
		t.Fatalf("homeowner UnreadCount after read = %d, %v, want 0", count, err)
	}

	page, err := fx.service.ListForJob(ctx, fx.trader, fx.job.ID, 1, 50)
	if err != nil {
		t.Fatalf("ListForJob() error: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("thread has %d messages, want 2", len(page.Messages))
	}
	if page.Conversation.UnreadCount != 1 {
		t.Errorf("trader conversation UnreadCount = %d, want 1", page.Conversation.UnreadCount)
	}
	if page.Messages[0].Status != "read" {
		t.Errorf("opening message status = %q, want read", page.Messages[0].Status)
	}
}
