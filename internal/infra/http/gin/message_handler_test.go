package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradehub/internal/app/services/identity"
	appmessages "tradehub/internal/app/services/messages"
	domainjobs "tradehub/internal/domain/jobs"
	domainuser "tradehub/internal/domain/user"
	"tradehub/internal/infra/config"
	"tradehub/internal/infra/images"
	"tradehub/internal/infra/obs"
	"tradehub/internal/infra/storage/memory"
)

func buildTestServer(t *testing.T) (http.Handler, *memory.ImageStore) {
	t.Helper()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	users := memory.NewUserDirectory()
	jobs := memory.NewJobDirectory()
	store := memory.NewMessageStore()
	imgs := memory.NewImageStore("/api/v1/messages/images")

	for _, u := range []struct {
		id, email, name string
		role            domainuser.Role
	}{
		{"owner-1", "owner@example.com", "Olivia Owner", domainuser.RoleHomeowner},
		{"trader-1", "tom@example.com", "Tom Trader", domainuser.RoleTradesperson},
		{"owner-2", "someone@example.com", "Sam Stranger", domainuser.RoleHomeowner},
	} {
		account, err := domainuser.NewUser(domainuser.CreateParams{
			ID: domainuser.ID(u.id), Email: u.email, Name: u.name, Role: u.role, CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("NewUser(%s) error: %v", u.id, err)
		}
		if err := users.Add(account); err != nil {
			t.Fatalf("Add(%s) error: %v", u.id, err)
		}
	}
	jobs.AddJob(&domainjobs.Job{
		ID:    "job-1",
		Title: "Fix leaking tap",
		Homeowner: domainjobs.Homeowner{
			Name: "Olivia Owner", Email: "owner@example.com",
		},
		CreatedAt: now,
	})
	jobs.AddQuote(domainjobs.Quote{
		ID: "quote-1", JobID: "job-1", TradespersonID: "trader-1", Status: "pending", CreatedAt: now,
	})

	service := &appmessages.Service{
		Store: store,
		Jobs:  jobs,
		Users: users,
		Attachments: &appmessages.AttachmentHandler{
			Store:     imgs,
			Processor: images.NewProcessor(),
		},
	}

	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Messages: MessageHandler{Service: service, Images: imgs},
		AuthMiddleware: AuthMiddleware{
			Resolver: identity.DirectoryResolver{Users: users},
		}.Handle,
	})
	return server.Handler, imgs
}

func sendForm(t *testing.T, handler http.Handler, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) error: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/send", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func doGet(t *testing.T, handler http.Handler, token, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestMessagesAPI_RequiresAuth(t *testing.T) {
	handler, _ := buildTestServer(t)

	paths := []string{
		"/api/v1/messages/job/job-1",
		"/api/v1/messages/conversations",
		"/api/v1/messages/unread-count",
	}
	for _, path := range paths {
		if resp := doGet(t, handler, "", path); resp.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, resp.Code)
		}
	}
	if resp := sendForm(t, handler, "", map[string]string{"job_id": "job-1"}); resp.Code != http.StatusUnauthorized {
		t.Errorf("POST send without token = %d, want 401", resp.Code)
	}
}

func TestMessagesAPI_SendAndRead(t *testing.T) {
	handler, _ := buildTestServer(t)

	resp := sendForm(t, handler, "owner-1", map[string]string{
		"job_id":       "job-1",
		"recipient_id": "trader-1",
		"content":      "can you start Monday?",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("send = %d, body %s", resp.Code, resp.Body.String())
	}
	var sent struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode send response: %v", err)
	}
	if sent.Status != "sent" || sent.ID == "" {
		t.Fatalf("send response = %+v", sent)
	}

	unread := doGet(t, handler, "trader-1", "/api/v1/messages/unread-count")
	if unread.Code != http.StatusOK {
		t.Fatalf("unread-count = %d", unread.Code)
	}
	var counter struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.Unmarshal(unread.Body.Bytes(), &counter); err != nil {
		t.Fatalf("decode unread response: %v", err)
	}
	if counter.UnreadCount != 1 {
		t.Errorf("unread_count = %d, want 1", counter.UnreadCount)
	}

	// Only the recipient may mark it read.
	markReq := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/messages/%s/read", sent.ID), nil)
	markReq.Header.Set("Authorization", "Bearer owner-1")
	markResp := httptest.NewRecorder()
	handler.ServeHTTP(markResp, markReq)
	if markResp.Code != http.StatusForbidden {
		t.Errorf("sender mark read = %d, want 403", markResp.Code)
	}

	markReq = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/messages/%s/read", sent.ID), nil)
	markReq.Header.Set("Authorization", "Bearer trader-1")
	markResp = httptest.NewRecorder()
	handler.ServeHTTP(markResp, markReq)
	if markResp.Code != http.StatusOK {
		t.Fatalf("mark read = %d, body %s", markResp.Code, markResp.Body.String())
	}

	thread := doGet(t, handler, "trader-1", "/api/v1/messages/job/job-1")
	if thread.Code != http.StatusOK {
		t.Fatalf("thread = %d", thread.Code)
	}
	var page struct {
		Messages []struct {
			Status string `json:"status"`
		} `json:"messages"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(thread.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode thread response: %v", err)
	}
	if page.Pagination.Total != 1 || len(page.Messages) != 1 {
		t.Fatalf("thread page = %+v", page)
	}
	if page.Messages[0].Status != "read" {
		t.Errorf("message status = %q, want read", page.Messages[0].Status)
	}
}

func TestMessagesAPI_ErrorMapping(t *testing.T) {
	handler, _ := buildTestServer(t)

	// Unknown job surfaces as 404.
	if resp := doGet(t, handler, "owner-1", "/api/v1/messages/job/job-999"); resp.Code != http.StatusNotFound {
		t.Errorf("unknown job = %d, want 404", resp.Code)
	}

	// A non-participant is rejected with 403.
	if resp := doGet(t, handler, "owner-2", "/api/v1/messages/job/job-1"); resp.Code != http.StatusForbidden {
		t.Errorf("non-participant thread access = %d, want 403", resp.Code)
	}

	// Empty text content fails validation.
	resp := sendForm(t, handler, "owner-1", map[string]string{
		"job_id":       "job-1",
		"recipient_id": "trader-1",
		"content":      "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("empty content send = %d, want 400", resp.Code)
	}

	// Bad message type fails validation.
	resp = sendForm(t, handler, "owner-1", map[string]string{
		"job_id":       "job-1",
		"recipient_id": "trader-1",
		"content":      "hi",
		"message_type": "carrier-pigeon",
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("bad type send = %d, want 400", resp.Code)
	}
}

func TestMessagesAPI_ImageRoute(t *testing.T) {
	handler, imgs := buildTestServer(t)

	if resp := doGet(t, handler, "", "/api/v1/messages/images/missing.jpg"); resp.Code != http.StatusNotFound {
		t.Errorf("missing image = %d, want 404", resp.Code)
	}

	payload := []byte{0xff, 0xd8, 0xff, 0xdb, 0x00}
	if _, err := imgs.Save(context.Background(), "stored.jpg", payload); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	resp := doGet(t, handler, "", "/api/v1/messages/images/stored.jpg")
	if resp.Code != http.StatusOK {
		t.Fatalf("stored image = %d", resp.Code)
	}
	if got := resp.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := resp.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.Equal(resp.Body.Bytes(), payload) {
		t.Errorf("image body mismatch")
	}
}
