// Package validators registers the request payload rules shared across
// handlers on a go-playground validator and turns its failures into
// field/description pairs.
package validators

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	emailRe    = regexp.MustCompile(`^[\w.\-]*@[\w.\-]*\.\w+`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z]+[a-zA-Z0-9]*\.?[a-zA-Z0-9]+$`)
	webURLRe   = regexp.MustCompile(`^(http://www\.|https://www\.|http://|https://)?[a-z0-9]+([\-.][a-z0-9]+)*\.[a-z]{2,5}(:[0-9]{1,5})?(/.*)?$`)
	digitsRe   = regexp.MustCompile(`^[0-9]+$`)
)

// datePatterns maps the valid_date parameter onto a time layout. Anything
// else is treated as dd/mm/yyyy.
var datePatterns = map[string]string{
	"yyyy-mm-ddThh:mm": "2006-01-02T15:04",
	"yyyy-mm-dd":       "2006-01-02",
	"yyyy-mm":          "2006-01",
}

func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsAllowedPassword accepts 5 to 50 printable ASCII characters
func IsAllowedPassword(s string) bool {
	if len(s) < 5 || len(s) > 50 {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// IsValidDate reports whether s matches pattern. Empty strings pass so the
// rule can sit on optional fields.
func IsValidDate(s, pattern string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(dateLayout(pattern), s)
	return err == nil
}

func dateLayout(pattern string) string {
	if layout, ok := datePatterns[pattern]; ok {
		return layout
	}
	return "02/01/2006"
}

// IsValidTime accepts HH:MM
func IsValidTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func IsValidName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 2 && n <= 40
}

func IsOnlyDigits(s string) bool {
	return digitsRe.MatchString(s)
}

// IsValidPhone only bounds the length; numbering plans vary too much for more
func IsValidPhone(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 5 && n <= 12
}

// IsValidUsername accepts 4 to 20 characters starting with a letter, with at
// most one dot that is neither first nor last
func IsValidUsername(s string) bool {
	return len(s) >= 4 && len(s) <= 20 && usernameRe.MatchString(s)
}

func IsValidWebURL(s string) bool {
	return webURLRe.MatchString(s)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with every custom rule registered
// and field names reported by their json tag
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = New()
	})
	return validate
}

// New builds a fresh validator with the custom rules registered
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]validator.Func{
		"valid_email":      stringRule(IsValidEmail),
		"allowed_password": stringRule(IsAllowedPassword),
		"valid_time":       stringRule(IsValidTime),
		"valid_name":       stringRule(IsValidName),
		"only_digits":      stringRule(IsOnlyDigits),
		"valid_phone":      stringRule(IsValidPhone),
		"valid_username":   stringRule(IsValidUsername),
		"valid_web_url":    stringRule(IsValidWebURL),
		"valid_date": func(fl validator.FieldLevel) bool {
			return IsValidDate(fl.Field().String(), fl.Param())
		},
		"non_empty": func(fl validator.FieldLevel) bool {
			f := fl.Field()
			switch f.Kind() {
			case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
				return f.Len() > 0
			}
			return !f.IsZero()
		},
	}
	for tag, fn := range rules {
		// Registration only fails for empty tags or nil funcs
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
