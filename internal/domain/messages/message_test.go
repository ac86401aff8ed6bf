package messages

import (
	"errors"
	"testing"
	"time"

	"tradehub/internal/domain/jobs"
	"tradehub/internal/domain/user"
)

func validParams() CreateParams {
	return CreateParams{
		ID:          "msg-1",
		JobID:       jobs.JobID("job-1"),
		SenderID:    user.ID("alice"),
		RecipientID: user.ID("bob"),
		Content:     "hello",
		Type:        TypeText,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewMessage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantErr error
	}{
		{
			name:   "valid text message",
			mutate: func(p *CreateParams) {},
		},
		{
			name:    "missing id",
			mutate:  func(p *CreateParams) { p.ID = "  " },
			wantErr: ErrIDRequired,
		},
		{
			name:    "missing job",
			mutate:  func(p *CreateParams) { p.JobID = "" },
			wantErr: ErrJobRequired,
		},
		{
			name:    "missing sender",
			mutate:  func(p *CreateParams) { p.SenderID = "" },
			wantErr: ErrSenderRequired,
		},
		{
			name:    "missing recipient",
			mutate:  func(p *CreateParams) { p.RecipientID = "" },
			wantErr: ErrRecipientRequired,
		},
		{
			name:    "self addressed",
			mutate:  func(p *CreateParams) { p.RecipientID = p.SenderID },
			wantErr: ErrSelfAddressed,
		},
		{
			name:    "text without content",
			mutate:  func(p *CreateParams) { p.Content = "   " },
			wantErr: ErrContentRequired,
		},
		{
			name: "image without content is allowed",
			mutate: func(p *CreateParams) {
				p.Type = TypeImage
				p.Content = ""
				p.ImageURL = "/api/v1/messages/images/x.jpg"
			},
		},
		{
			name:    "unknown type",
			mutate:  func(p *CreateParams) { p.Type = Type("audio") },
			wantErr: ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			msg, err := NewMessage(params)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMessage() unexpected error: %v", err)
			}
			if msg.Status != StatusSent {
				t.Errorf("Status = %q, want %q", msg.Status, StatusSent)
			}
			if msg.ReadAt != nil {
				t.Errorf("ReadAt = %v, want nil", msg.ReadAt)
			}
			if !msg.CreatedAt.Equal(msg.UpdatedAt) {
				t.Errorf("CreatedAt %v and UpdatedAt %v should match on creation", msg.CreatedAt, msg.UpdatedAt)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		raw     string
		want    Type
		wantErr bool
	}{
		{raw: "", want: TypeText},
		{raw: "text", want: TypeText},
		{raw: " Image ", want: TypeImage},
		{raw: "video", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidType) {
				t.Errorf("ParseType(%q) error = %v, want ErrInvalidType", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseType(%q) = %q, %v, want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestMessage_MarkRead(t *testing.T) {
	msg, err := NewMessage(validParams())
	if err != nil {
		t.Fatalf("NewMessage() error: %v", err)
	}

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := msg.MarkRead(first); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if msg.Status != StatusRead {
		t.Errorf("Status = %q, want %q", msg.Status, StatusRead)
	}
	if msg.ReadAt == nil || !msg.ReadAt.Equal(first) {
		t.Errorf("ReadAt = %v, want %v", msg.ReadAt, first)
	}
	if !msg.UpdatedAt.Equal(first) {
		t.Errorf("UpdatedAt = %v, want %v", msg.UpdatedAt, first)
	}

	// The second transition must not move ReadAt.
	second := first.Add(time.Hour)
	if err := msg.MarkRead(second); !errors.Is(err, ErrAlreadyRead) {
		t.Fatalf("second MarkRead() error = %v, want ErrAlreadyRead", err)
	}
	if !msg.ReadAt.Equal(first) {
		t.Errorf("ReadAt moved to %v after repeat mark, want %v", msg.ReadAt, first)
	}
}

func TestMessage_Counterpart(t *testing.T) {
	msg, err := NewMessage(validParams())
	if err != nil {
		t.Fatalf("NewMessage() error: %v", err)
	}
	if got := msg.Counterpart("alice"); got != "bob" {
		t.Errorf("Counterpart(alice) = %q, want bob", got)
	}
	if got := msg.Counterpart("bob"); got != "alice" {
		t.Errorf("Counterpart(bob) = %q, want alice", got)
	}
	if !msg.Involves("alice") || !msg.Involves("bob") {
		t.Error("Involves() should report both participants")
	}
	if msg.Involves("carol") {
		t.Error("Involves(carol) = true, want false")
	}
}
