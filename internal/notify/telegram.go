package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"smartmoney/internal/config"
)

const telegramMaxText = 4096

type Telegram struct {
	apiURL     string
	token      string
	chatID     string
	httpClient *http.Client
}

func NewTelegram(cfg config.TelegramConfig, token, chatID string) *Telegram {
	return &Telegram{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	text = truncateRunes(text, telegramMaxText)
	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// the request URL carries the bot token
		return fmt.Errorf("telegram send: %w", redact(err, t.token))
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var out sendMessageResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode >= 400 || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode, desc)
	}
	return nil
}

func (t *Telegram) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "***"), err: err}
}
