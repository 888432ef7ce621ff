package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/util"
)

// Config is the process configuration read from the environment
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	UploadFolder       string   `envconfig:"FILE_UPLOAD_FOLDER" default:"uploads"`
	TemplateDir        string   `envconfig:"TEMPLATE_DIR" default:"templates"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	JWTSecret      string `envconfig:"JWT_SECRET"`
	JWTExpiryHours int    `envconfig:"JWT_EXPIRY_HOURS" default:"24"`

	AdminEmail        string `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	MailgunURL    string `envconfig:"MAILGUN_URL"`
	MailgunAPIKey string `envconfig:"MAILGUN_API_KEY"`
	MailgunSender string `envconfig:"MAILGUN_SENDER"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`
	TwilioBaseURL    string `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com"`

	SMTPHost      string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort      string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername  string `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	SMTPFromEmail string `envconfig:"SMTP_FROM_EMAIL"`
}

type MailgunConfig struct {
	URL    string
	APIKey string
	Sender string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether outbound side effects should be suppressed
func (c *Config) IsDevelopment() bool {
	return c.Env == util.EnvDevelopment
}

// JWT returns the token signing settings
func (c *Config) JWT() util.JWTConfig {
	return util.JWTConfig{
		Secret:      c.JWTSecret,
		ExpiryHours: c.JWTExpiryHours,
		Issuer:      "zephony",
	}
}

func (c *Config) Mailgun() MailgunConfig {
	return MailgunConfig{URL: c.MailgunURL, APIKey: c.MailgunAPIKey, Sender: c.MailgunSender}
}

func (c *Config) Twilio() TwilioConfig {
	return TwilioConfig{
		AccountSID: c.TwilioAccountSID,
		AuthToken:  c.TwilioAuthToken,
		FromNumber: c.TwilioFromNumber,
		BaseURL:    c.TwilioBaseURL,
	}
}

func (c *Config) SMTP() SMTPConfig {
	return SMTPConfig{
		Host:      c.SMTPHost,
		Port:      c.SMTPPort,
		Username:  c.SMTPUsername,
		Password:  c.SMTPPassword,
		FromEmail: c.SMTPFromEmail,
	}
}
