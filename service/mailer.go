package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/util"
)

var (
	ErrNoRecipients     = errors.New("email has no recipients")
	ErrMailerNotReady   = errors.New("mailer is not configured")
	ErrNoAttachmentSMTP = errors.New("attachments are not supported over smtp")
)

// Email is one message, possibly to many recipients. Either HTML or
// Template is set; Template names a file in the template directory that is
// rendered with TemplateData.
type Email struct {
	To           []string
	Subject      string
	HTML         string
	Text         string
	Template     string
	TemplateData any
	From         string
	ReplyTo      string
	Attachments  []string
	// DeliveryDays schedules delivery that many days from now when > 0
	DeliveryDays int
	// RecipientVars keeps bulk sends individual: one entry per address
	RecipientVars map[string]map[string]any
}

// Mailer sends emails. In the development environment implementations log
// and send nothing.
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// SendAsync sends email in the background and logs the outcome
func SendAsync(m Mailer, email *Email) {
	go func() {
		if err := m.Send(context.Background(), email); err != nil {
			zap.L().Error("async email failed", zap.Strings("to", email.To), zap.String("subject", email.Subject), zap.Error(err))
			return
		}
		zap.L().Info("async email sent", zap.Strings("to", email.To), zap.String("subject", email.Subject))
	}()
}

func renderHTML(templateDir string, email *Email) (string, error) {
	if email.Template == "" {
		return email.HTML, nil
	}
	tmpl, err := template.ParseFiles(filepath.Join(templateDir, email.Template))
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", email.Template, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, email.TemplateData); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", email.Template, err)
	}
	return buf.String(), nil
}

// MailgunMailer sends through the Mailgun REST API. The configured URL
// already carries the domain and region, e.g.
// https://api.eu.mailgun.net/v3/mg.example.com
type MailgunMailer struct {
	cfg         config.MailgunConfig
	env         string
	templateDir string
	client      *retryablehttp.Client
}

type MailgunOption func(*MailgunMailer)

func WithMailgunClient(c *retryablehttp.Client) MailgunOption {
	return func(m *MailgunMailer) { m.client = c }
}

func NewMailgunMailer(cfg config.MailgunConfig, env, templateDir string, opts ...MailgunOption) *MailgunMailer {
	m := &MailgunMailer{cfg: cfg, env: env, templateDir: templateDir, client: NewHTTPClient(3)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MailgunMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	html, err := renderHTML(m.templateDir, email)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("from", m.cfg.Sender)
	if email.From != "" {
		form.Set("from", email.From)
	}
	for _, to := range email.To {
		form.Add("to", to)
	}
	form.Set("subject", email.Subject)
	form.Set("html", html)
	if email.Text != "" {
		form.Set("text", email.Text)
	}
	if email.ReplyTo != "" {
		form.Set("h:Reply-To", email.ReplyTo)
	}
	if email.DeliveryDays > 0 {
		form.Set("o:deliverytime", time.Now().UTC().AddDate(0, 0, email.DeliveryDays).Format(time.RFC1123Z))
	}
	if len(email.RecipientVars) > 0 {
		vars, err := json.Marshal(email.RecipientVars)
		if err != nil {
			return fmt.Errorf("failed to encode recipient variables: %w", err)
		}
		form.Set("recipient-variables", string(vars))
	}

	if m.env == util.EnvDevelopment {
		zap.L().Warn("development environment detected, not sending email",
			zap.Strings("to", email.To), zap.String("subject", email.Subject))
		return nil
	}
	if m.cfg.URL == "" || m.cfg.APIKey == "" {
		return fmt.Errorf("mailgun: %w", ErrMailerNotReady)
	}

	body, contentType, err := encodeMailgunForm(form, email.Attachments)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(m.cfg.URL, "/")+"/messages", body)
	if err != nil {
		return fmt.Errorf("failed to build mailgun request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth("api", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Service: "mailgun", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	zap.L().Info("email queued with mailgun", zap.Strings("to", email.To), zap.Int("status", resp.StatusCode))
	return nil
}

// encodeMailgunForm returns a urlencoded body, or a multipart one when
// there are files to attach
func encodeMailgunForm(form url.Values, attachments []string) ([]byte, string, error) {
	if len(attachments) == 0 {
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range form {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, path := range attachments {
		if err := attachFile(w, path); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	part, err := w.CreateFormFile("attachment", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
