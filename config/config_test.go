package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MAILGUN_URL", "https://api.mailgun.net/v3/mg.example")
	t.Setenv("MAILGUN_API_KEY", "key-123")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "key-123", cfg.Mailgun().APIKey)
	assert.Equal(t, "AC123", cfg.Twilio().AccountSID)
	assert.Equal(t, "https://api.twilio.com", cfg.Twilio().BaseURL)
	assert.Equal(t, "2525", cfg.SMTP().Port)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP().Host)
	assert.Equal(t, 24, cfg.JWT().ExpiryHours)
	assert.Equal(t, "s3cret", cfg.JWT().Secret)
}

func TestLoadDefaultsToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	require.NoError(t, os.Unsetenv("APP_ENV"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestInitDB(t *testing.T) {
	_, err := InitDB("")
	assert.ErrorIs(t, err, ErrDatabaseURLMissing)

	db, err := InitDB("sqlite://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Dialector.Name())

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("contacts"))
	assert.True(t, db.Migrator().HasTable("cities"))
}
