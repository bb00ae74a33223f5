package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chatlobby/internal/models"
)

// HTTPRemote delivers drained items to the chat origin over JSON POSTs.
type HTTPRemote struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	return &HTTPRemote{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *HTTPRemote) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("origin returned %d for %s", resp.StatusCode, path)
	}
	return nil
}

func (r *HTTPRemote) SendMessage(ctx context.Context, m models.PendingMessage) error {
	return r.post(ctx, "/api/messages", map[string]any{
		"userId":  m.UserID,
		"chatId":  m.ChatID,
		"body":    m.Body,
		"queued":  m.CreatedAt,
		"localId": m.ID,
	})
}

func (r *HTTPRemote) SendReadReceipt(ctx context.Context, rr models.PendingReadReceipt) error {
	return r.post(ctx, "/api/read-receipts", map[string]any{
		"userId":    rr.UserID,
		"chatId":    rr.ChatID,
		"messageId": rr.MessageID,
	})
}

func (r *HTTPRemote) UploadStatus(ctx context.Context, s models.PendingStatusUpload) error {
	return r.post(ctx, "/api/status", map[string]any{
		"userId":   s.UserID,
		"mediaUrl": s.MediaURL,
		"caption":  s.Caption,
	})
}

func (r *HTTPRemote) UpdatePresence(ctx context.Context, at time.Time) error {
	return r.post(ctx, "/api/presence", map[string]any{
		"lastSeen": at.UTC().Format(time.RFC3339),
	})
}
