package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctRe = regexp.MustCompile(`[\t !"#$%&'()*\-/<=>?@\[\\\]^_` + "`" + `{|},.]+`)

type tokenConfig struct {
	delim        string
	appendRandom bool
	nonASCII     bool
}

// TokenOption customises Tokenify
type TokenOption func(*tokenConfig)

// Delim sets the separator placed between words (default "-")
func Delim(d string) TokenOption {
	return func(c *tokenConfig) { c.delim = d }
}

// AppendRandom suffixes the slug with the current unix time in microseconds
func AppendRandom() TokenOption {
	return func(c *tokenConfig) { c.appendRandom = true }
}

// NonASCII keeps non-ASCII characters (NFKD decomposed) instead of dropping them
func NonASCII() TokenOption {
	return func(c *tokenConfig) { c.nonASCII = true }
}

// Tokenify generates a slug from text.
//
// The text is lowercased and split on punctuation and whitespace. Every word is
// NFKD normalised and, unless NonASCII is given, stripped of anything outside
// ASCII, so "Crème Brûlée!" becomes "creme-brulee".
func Tokenify(text string, opts ...TokenOption) string {
	cfg := tokenConfig{delim: "-"}
	for _, opt := range opts {
		opt(&cfg)
	}

	words := make([]string, 0)
	for _, word := range punctRe.Split(strings.ToLower(text), -1) {
		if cfg.nonASCII {
			word = norm.NFKD.String(word)
		} else {
			word = ToASCII(word)
		}
		if word != "" {
			words = append(words, word)
		}
	}

	result := strings.Join(words, cfg.delim)
	if cfg.appendRandom {
		result += cfg.delim + strconv.FormatInt(time.Now().UnixMicro(), 10)
	}
	return result
}

// ToASCII decomposes s (NFKD) and drops every rune outside the ASCII range
func ToASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}
