package messages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	domainmessages "tradehub/internal/domain/messages"
	"tradehub/internal/infra/images"
)

// ErrInvalidAttachment rejects an upload before anything is persisted:
// wrong extension, oversized payload, or bytes that do not decode as an
// image.
var ErrInvalidAttachment = errors.New("messages: invalid attachment")

// MaxAttachmentBytes caps uploaded images at 10 MiB.
const MaxAttachmentBytes = 10 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ImageStore persists processed attachment bytes under a chosen name.
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (url string, err error)
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, filename string) error
}

// Upload carries an inbound multipart file into the service.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// Attachment is the stored result: a retrieval URL plus the generated
// object name (kept for compensating deletes).
type Attachment struct {
	URL      string
	Filename string
}

// AttachmentHandler validates, normalizes and persists message images.
type AttachmentHandler struct {
	Store     ImageStore
	Processor images.Processor
	Logger    *slog.Logger
}

// Attach processes the upload when the message is an image message with a
// file present; any other combination is a no-op returning nil. Validation
// failures surface as ErrInvalidAttachment before any write happens.
func (h *AttachmentHandler) Attach(ctx context.Context, upload *Upload, msgType domainmessages.Type) (*Attachment, error) {
	if upload == nil || msgType != domainmessages.TypeImage {
		return nil, nil
	}
	if h.Store == nil {
		return nil, errors.New("messages: image store is not configured")
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidAttachment, ext)
	}
	if upload.Size > MaxAttachmentBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAttachment, MaxAttachmentBytes)
	}

	// The declared size is not trusted; reading one byte past the cap
	// catches lying clients.
	data, err := io.ReadAll(io.LimitReader(upload.Reader, MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("messages: read upload: %w", err)
	}
	if len(data) > MaxAttachmentBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAttachment, MaxAttachmentBytes)
	}

	processed, err := h.Processor.Normalize(data)
	if err != nil {
		if errors.Is(err, images.ErrInvalidImage) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
		}
		return nil, err
	}

	filename := uuid.NewString() + ext
	url, err := h.Store.Save(ctx, filename, processed)
	if err != nil {
		return nil, fmt.Errorf("messages: store attachment: %w", err)
	}
	return &Attachment{URL: url, Filename: filename}, nil
}

// Discard removes a stored attachment after a downstream failure. Image
// and message writes are not transactional, so the send path calls this to
// avoid leaking orphaned files. Deletion failures are logged, not
// propagated; the original error matters more.
func (h *AttachmentHandler) Discard(ctx context.Context, att *Attachment) {
	if att == nil || h.Store == nil {
		return
	}
	if err := h.Store.Delete(ctx, att.Filename); err != nil && h.Logger != nil {
		h.Logger.Error("orphaned attachment cleanup failed", "filename", att.Filename, "error", err)
	}
}
