package ginserver

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tradehub/internal/app/dto"
	appmessages "tradehub/internal/app/services/messages"
	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
)

// Stored attachments are re-encoded to JPEG regardless of the uploaded
// format, so the image route always serves this type.
const imageContentType = "image/jpeg"

const imageCacheControl = "public, max-age=3600"

// MessageHandler bridges HTTP with the messaging service.
type MessageHandler struct {
	Service *appmessages.Service
	Images  appmessages.ImageStore
	Logger  *slog.Logger
}

// Send creates a message from a multipart form: job_id, recipient_id,
// content, message_type and an optional image file.
func (h MessageHandler) Send(c *gin.Context) {
	caller, ok := requireUser(c)
	if !ok {
		return
	}

	params := appmessages.SendParams{
		JobID:       domainjobs.JobID(strings.TrimSpace(c.PostForm("job_id"))),
		RecipientID: domainuser.ID(strings.TrimSpace(c.PostForm("recipient_id"))),
		Content:     c.PostForm("content"),
		MessageType: c.PostForm("message_type"),
	}
	if params.JobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}
	if params.RecipientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_id is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload"})
		return
	}
	if fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload"})
			return
		}
		defer file.Close()
		params.File = &appmessages.Upload{
			Filename: fileHeader.Filename,
			Size:     fileHeader.Size,
			Reader:   file,
		}
	}

	msg, err := h.Service.Send(c.Request.Context(), caller, params)
	if err != nil {
		h.respondServiceError(c, err, "send message", "job_id", params.JobID, "user_id", caller.ID)
		return
	}
	c.JSON(http.StatusOK, dto.MapMessage(msg))
}

// Thread returns one page of a job's conversation for the caller.
func (h MessageHandler) Thread(c *gin.Context) {
	caller, ok := requireUser(c)
	if !ok {
		return
	}
	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id is required"})
		return
	}
	page := parsePositiveIntStrict(c.Query("page"), 1)
	limit := parsePositiveIntStrict(c.Query("limit"), 50)

	result, err := h.Service.ListForJob(c.Request.Context(), caller, domainjobs.JobID(jobID), page, limit)
	if err != nil {
		h.respondServiceError(c, err, "list thread", "job_id", jobID, "user_id", caller.ID)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Conversations lists the caller's threads, most recent activity first.
func (h MessageHandler) Conversations(c *gin.Context) {
	caller, ok := requireUser(c)
	if !ok {
		return
	}
	summaries, err := h.Service.ListConversations(c.Request.Context(), caller)
	if err != nil {
		h.respondServiceError(c, err, "list conversations", "user_id", caller.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// MarkRead marks a message as read on behalf of its recipient.
func (h MessageHandler) MarkRead(c *gin.Context) {
	caller, ok := requireUser(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message id is required"})
		return
	}
	if err := h.Service.MarkRead(c.Request.Context(), caller, domainmessages.MessageID(id)); err != nil {
		h.respondServiceError(c, err, "mark read", "message_id", id, "user_id", caller.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message marked as read"})
}

// UnreadCount returns the caller's unread total across all threads.
func (h MessageHandler) UnreadCount(c *gin.Context) {
	caller, ok := requireUser(c)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		h.respondServiceError(c, err, "count unread", "user_id", caller.ID)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCount{UnreadCount: count})
}

// Image streams a stored attachment. URLs are unguessable uuid names, so
// the route is served without authentication and marked cacheable.
func (h MessageHandler) Image(c *gin.Context) {
	filename := strings.TrimSpace(c.Param("filename"))
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}
	if h.Images == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	obj, err := h.Images.Open(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("image fetch failed", "filename", filename, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load image"})
		return
	}
	defer obj.Close()

	c.Header("Cache-Control", imageCacheControl)
	c.Header("Content-Type", imageContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil && h.Logger != nil {
		h.Logger.Debug("image stream interrupted", "filename", filename, "error", err)
	}
}

func (h MessageHandler) respondServiceError(c *gin.Context, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, domainjobs.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound),
		errors.Is(err, domainmessages.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, appmessages.ErrNotParticipant),
		errors.Is(err, appmessages.ErrNotRecipient):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, appmessages.ErrInvalidAttachment),
		errors.Is(err, domainmessages.ErrInvalidType),
		errors.Is(err, domainmessages.ErrContentRequired),
		errors.Is(err, domainmessages.ErrSelfAddressed),
		errors.Is(err, domainmessages.ErrJobRequired),
		errors.Is(err, domainmessages.ErrRecipientRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("messaging call failed", append([]any{"action", action, "error", err}, attrs...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePositiveIntStrict(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}

var _ MessageHTTP = MessageHandler{}
