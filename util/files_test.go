package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedFile(t *testing.T) {
	assert.True(t, IsAllowedFile("contacts.CSV"))
	assert.False(t, IsAllowedFile("contacts.txt"))
	assert.False(t, IsAllowedFile("contacts"))
	assert.True(t, IsAllowedFile("avatar.png", "png", "jpg"))
	assert.False(t, IsAllowedFile("avatar.png.exe", "png", "jpg"))
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"My cool movie.mov":  "My_cool_movie.mov",
		"../../etc/passwd":   "etc_passwd",
		`..\..\boot.ini`:     "boot.ini",
		"résumé (final).pdf": "resume_final.pdf",
		"...":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SecureFilename(in), in)
	}
}

func TestChecksumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	sum, err := ChecksumFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = ChecksumFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	in := "name,code\n Alice , 1\n,2\nBob,3\n"

	rows, err := ParseCSV(strings.NewReader(in), SkipHeader(), EmptyCheckCol(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Alice", "1"}, {"Bob", "3"}}, rows)

	rows, err = ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{"", "2"}, rows[2])
}

func TestReadCSVDelimiterAndEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("caf\xff;Rome\nbar;\n"), 0o600))

	rows, err := ReadCSV(path, WithDelimiter(';'), EmptyCheckCol(1))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"caf", "Rome"}}, rows)

	_, err = ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	page, size := NormalizePagination("2", "10", DefaultPage, DefaultPageSize)
	assert.Equal(t, 2, page)
	assert.Equal(t, 10, size)

	page, size = NormalizePagination("0", "abc", DefaultPage, DefaultPageSize)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)

	page, size = NormalizePagination("-3", "", 1, 25)
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 10, TotalPages(100, 10))
	assert.Equal(t, 11, TotalPages(101, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
