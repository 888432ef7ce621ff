package util

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts []TokenOption
		want string
	}{
		{name: "punctuation", in: "Hello, World!", want: "hello-world"},
		{name: "accents", in: "Crème Brûlée", want: "creme-brulee"},
		{name: "surrounding-space", in: "  a  b ", opts: []TokenOption{Delim("_")}, want: "a_b"},
		{name: "non-latin-dropped", in: "日本 test", want: "test"},
		{name: "underscore-and-dots", in: "v1.2_release", want: "v1-2-release"},
		{name: "keep-non-ascii", in: "Café", opts: []TokenOption{NonASCII()}, want: "cafe\u0301"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenify(tt.in, tt.opts...))
		})
	}
}

func TestTokenifyAppendRandom(t *testing.T) {
	got := Tokenify("My Post", AppendRandom())
	require.True(t, strings.HasPrefix(got, "my-post-"), got)
	assert.Regexp(t, regexp.MustCompile(`^my-post-\d{16,}$`), got)
}

func TestRandomString(t *testing.T) {
	s := RandomString(0, "")
	assert.Len(t, s, DefaultRandomSize)
	for _, r := range s {
		assert.Contains(t, DefaultRandomCharset, string(r))
	}

	s = RandomString(32, "ab")
	assert.Len(t, s, 32)
	assert.Regexp(t, `^[ab]+$`, s)
}
