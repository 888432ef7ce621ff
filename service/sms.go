package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/util"
)

// SMSMessage is the part of Twilio's message resource we report on
type SMSMessage struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SMSSender sends text messages through the Twilio REST API
type SMSSender struct {
	cfg    config.TwilioConfig
	env    string
	client *retryablehttp.Client
}

func NewSMSSender(cfg config.TwilioConfig, env string, client *retryablehttp.Client) *SMSSender {
	if client == nil {
		client = NewHTTPClient(3)
	}
	return &SMSSender{cfg: cfg, env: env, client: client}
}

// Send texts body to the phone number to. It returns nil and sends nothing
// in the development environment.
func (s *SMSSender) Send(ctx context.Context, to, body string) (*SMSMessage, error) {
	if s.env == util.EnvDevelopment {
		zap.L().Warn("development environment detected, not sending sms", zap.String("to", to))
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.AccountSID))
	form := url.Values{}
	form.Set("From", s.cfg.FromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, []byte(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().Error("cannot send sms", zap.String("to", to), zap.Error(err))
		return nil, fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw := readBody(resp.Body)
		var te twilioError
		if json.Unmarshal([]byte(raw), &te) == nil && te.Message != "" {
			raw = fmt.Sprintf("%d: %s", te.Code, te.Message)
		}
		err := &APIError{Service: "twilio", StatusCode: resp.StatusCode, Body: raw}
		zap.L().Error("twilio request error", zap.String("to", to), zap.Error(err))
		return nil, err
	}

	var msg SMSMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode twilio response: %w", err)
	}
	zap.L().Info("twilio message response",
		zap.String("sid", msg.SID),
		zap.String("status", msg.Status),
		zap.String("to", to))
	return &msg, nil
}
