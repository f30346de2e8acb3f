package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type SMSConfig struct {
	APIURL string
	APIKey string
	Sender string
}

// HTTPSMSSender posts messages to an SMS gateway's JSON API.
type HTTPSMSSender struct {
	cfg    SMSConfig
	client *http.Client
}

func NewHTTPSMS(cfg SMSConfig) *HTTPSMSSender {
	return &HTTPSMSSender{cfg: cfg, client: http.DefaultClient}
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func (p *HTTPSMSSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	payload, err := json.Marshal(smsRequest{From: p.cfg.Sender, To: to, Body: body})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}

	var parsed smsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != "" {
			return "", fmt.Errorf("sms gateway: %s", parsed.Error)
		}
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return parsed.MessageID, nil
}
