package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Zephony/zephony-go/models"
)

var messages = map[string]string{
	"required":         "required field is missing",
	"valid_email":      "please use a valid Email ID",
	"allowed_password": "password should be between 5 and 50 printable characters",
	"valid_time":       "not a valid time. Format should be HH:MM",
	"valid_name":       "name should be between 2 and 40 characters",
	"only_digits":      "only digits are allowed",
	"valid_phone":      "invalid phone number",
	"valid_username":   "username should start with a letter, be 4 to 20 characters long and may contain one dot",
	"valid_web_url":    "use a valid URL",
	"non_empty":        "cannot be empty",
	"email":            "please use a valid Email ID",
	"oneof":            "value must be one of: %s",
	"min":              "length or value must be at least %s",
	"max":              "length or value must be at most %s",
	"gte":              "must be greater than or equal to %s",
	"lte":              "must be lesser than or equal to %s",
}

// ValidateWithErrors validates payload and returns one FieldError per
// failing field, with dotted json paths such as "address.zip". A nil
// payload yields a single "data" error. The result is empty when payload
// is valid.
func ValidateWithErrors(payload any) []models.FieldError {
	if payload == nil || isNilPointer(payload) {
		return []models.FieldError{{Field: "data", Description: "Request data cannot be null"}}
	}

	err := Validator().Struct(payload)
	if err == nil {
		return []models.FieldError{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "data", Description: capitalize(err.Error())}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:       fieldPath(fe),
			Description: capitalize(describe(fe)),
		})
	}
	return out
}

// Validate is ValidateWithErrors returning an error for handlers
func Validate(payload any) error {
	if errs := ValidateWithErrors(payload); len(errs) > 0 {
		return &models.InvalidRequestDataError{Errors: errs}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "valid_date":
		return fmt.Sprintf("date should be of the format %s", fe.Param())
	}
	msg, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
