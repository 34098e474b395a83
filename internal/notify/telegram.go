// Package notify доставляет текстовые уведомления о событиях аренды и оплаты.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTelegramURL = "https://api.telegram.org"

// TelegramSink отправляет уведомления в чат через Bot API.
type TelegramSink struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramSink создаёт отправителя уведомлений в Telegram. Пустой baseURL означает боевой адрес API.
func NewTelegramSink(baseURL, token, chatID string) *TelegramSink {
	if baseURL == "" {
		baseURL = defaultTelegramURL
	}
	return &TelegramSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send отправляет сообщение в чат.
func (s *TelegramSink) Send(ctx context.Context, text string) error {
	data, err := json.Marshal(sendMessageRequest{ChatID: s.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tr telegramResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram rejected message: %s", tr.Description)
	}

	return nil
}
