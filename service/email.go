package service

import (
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/util"
	"github.com/Zephony/zephony-go/validators"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends multipart/alternative messages through an SMTP relay
type SMTPMailer struct {
	cfg         config.SMTPConfig
	env         string
	templateDir string
	sendMail    sendMailFunc
}

func NewSMTPMailer(cfg config.SMTPConfig, env, templateDir string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, env: env, templateDir: templateDir, sendMail: smtp.SendMail}
}

// sanitizeEmailHeader removes \r, \n, null bytes and other control
// characters that would allow header injection
func sanitizeEmailHeader(input string) string {
	sanitized := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(sanitized)
}

func sanitizeEmailAddress(email string) (string, error) {
	if err := validators.Validator().Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("invalid email format %q: %w", email, err)
	}
	return sanitizeEmailHeader(email), nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText is a rough text rendering of html for clients that ignore
// the html part
func plainText(html string) string {
	text := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n").Replace(html)
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

func (m *SMTPMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	if len(email.Attachments) > 0 {
		return ErrNoAttachmentSMTP
	}

	html, err := renderHTML(m.templateDir, email)
	if err != nil {
		return err
	}

	to := make([]string, 0, len(email.To))
	for _, addr := range email.To {
		clean, err := sanitizeEmailAddress(addr)
		if err != nil {
			return err
		}
		to = append(to, clean)
	}

	from := m.cfg.FromEmail
	if email.From != "" {
		from = email.From
	}
	from = sanitizeEmailHeader(from)

	headers := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n",
		from, strings.Join(to, ", "), sanitizeEmailHeader(email.Subject))
	if email.ReplyTo != "" {
		replyTo, err := sanitizeEmailAddress(email.ReplyTo)
		if err != nil {
			return err
		}
		headers += fmt.Sprintf("Reply-To: %s\r\n", replyTo)
	}

	text := email.Text
	if text == "" {
		text = plainText(html)
	}
	msg := headers + createMultipartEmail(strings.ReplaceAll(text, "\x00", ""), html)

	if m.env == util.EnvDevelopment {
		zap.L().Warn("development environment detected, not sending email",
			zap.Strings("to", to), zap.String("subject", email.Subject))
		return nil
	}
	if m.cfg.Username == "" || m.cfg.Password == "" || from == "" {
		return fmt.Errorf("smtp: %w", ErrMailerNotReady)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, from, to, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	zap.L().Info("email sent over smtp", zap.Strings("to", to))
	return nil
}

// createMultipartEmail returns the body with both plain text and HTML
// versions
func createMultipartEmail(plainText, html string) string {
	boundary := fmt.Sprintf("----=_NextPart_%d", time.Now().UnixNano())

	return fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n"+
		"\r\n"+
		"--%s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"Content-Transfer-Encoding: 8bit\r\n"+
		"\r\n"+
		"%s\r\n"+
		"\r\n"+
		"--%s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"Content-Transfer-Encoding: 8bit\r\n"+
		"\r\n"+
		"%s\r\n"+
		"\r\n"+
		"--%s--\r\n",
		boundary, boundary, plainText, boundary, html, boundary)
}
