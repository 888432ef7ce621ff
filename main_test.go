package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "seed.yaml", `
files:
  - model: cities
    path: cities.csv
  - model: contacts
    path: /data/contacts.csv
    delimiter: ";"
    row_commit: true
  - model: cities
    path: cities.XLSX
    sheet: Cities
`)

	m, err := readManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Files, 3)
	assert.Equal(t, filepath.Join(dir, "cities.csv"), m.Files[0].Path)
	assert.Equal(t, "/data/contacts.csv", m.Files[1].Path)
	assert.Equal(t, ";", m.Files[1].Delimiter)
	assert.True(t, m.Files[1].RowCommit)
	assert.Equal(t, "Cities", m.Files[2].Sheet)

	bad := []struct{ content, msg string }{
		{"files:\n  - model: users\n    path: u.csv\n", "unknown model"},
		{"files:\n  - model: cities\n", "path is required"},
		{"files:\n  - model: cities\n    path: c.csv\n    delimiter: ab\n", "single character"},
		{"files:\n  - model: cities\n    path: c.json\n", "unsupported file type"},
		{"files: [", "parse manifest"},
	}
	for _, tc := range bad {
		_, err := readManifest(writeFile(t, dir, "bad.yaml", tc.content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.msg)
	}
}

func TestSeed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	dir := t.TempDir()
	writeFile(t, dir, "cities.csv", "no,name\n1,London\n2,Paris\n")
	writeFile(t, dir, "contacts.csv", "no;name;email;phone;age;subscribed;kind;birth_date;permissions;city;street;zip\n"+
		"1;Ada;ada@example.com;;36;x;lead;;read;London;;\n"+
		"2;Ada again;ada@example.com;;;;lead;;;;;\n")
	manifest := writeFile(t, dir, "seed.yaml", "files:\n  - model: cities\n    path: cities.csv\n  - model: contacts\n    path: contacts.csv\n    delimiter: \";\"\n")

	m, err := readManifest(manifest)
	require.NoError(t, err)
	summaries, err := seed(context.Background(), db, m)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].Created)
	assert.Equal(t, 1, summaries[1].Created)
	assert.Equal(t, 1, summaries[1].Duplicates)

	var ada models.Contact
	require.NoError(t, db.Preload("City").Where("email = ?", "ada@example.com").Take(&ada).Error)
	require.NotNil(t, ada.City)
	assert.Equal(t, "London", ada.City.OriginalName)

	var cities int64
	require.NoError(t, db.Model(&models.City{}).Count(&cities).Error)
	assert.EqualValues(t, 2, cities)

	m.Files = append(m.Files, SeedFile{Model: "contacts", Path: filepath.Join(dir, "missing.csv")})
	_, err = seed(context.Background(), db, m)
	assert.ErrorContains(t, err, "missing.csv")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "ops", "--scope", "contacts:import", "--scope", "sms:send"})
	require.NoError(t, rootCmd.Execute())

	claims, err := util.ValidateToken(strings.TrimSpace(out.String()), util.JWTConfig{Secret: "cli-secret"})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, []string{"contacts:import", "sms:send"}, claims.Scopes)
}
