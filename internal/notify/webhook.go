package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookChannel posts events to an external push provider instead of (or
// behind) a local websocket registry. Used when the passenger app receives
// pushes through a mobile push backend rather than a direct socket.
type WebhookChannel struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewWebhookChannel(endpoint, key string) *WebhookChannel {
	return &WebhookChannel{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (w *WebhookChannel) Publish(targetID, event string, payload any) error {
	body := map[string]any{"target": targetID, "event": event, "data": payload}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, w.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Key != "" {
		req.Header.Set("Authorization", "Bearer "+w.Key)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
