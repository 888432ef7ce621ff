package util

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jinzhu/now"
)

// datetimeLayouts are tried in order by GetDatetime. Day, month and hour
// take one or two digits.
var datetimeLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2T15:04",
	"2006-1-2T15:04:05",
	"2/1/2006",
}

// dateParser backs NormalizeDate. jinzhu/now already knows the ISO-ish
// layouts; the extras cover the day-first and long forms clients send.
var dateParser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats: append([]string{
		"2/1/2006",
		"2/1/2006 15:04",
		"2 January 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339Nano,
	}, now.TimeFormats...),
}

// GetDatetime parses the date/datetime formats accepted from forms and
// imports: yyyy-mm-dd hh:mm[:ss], yyyy-mm-ddThh:mm[:ss] and dd/mm/yyyy.
// Surrounding spaces are ignored. ok is false when no layout matches.
func GetDatetime(s string) (t time.Time, ok bool) {
	s = strings.Trim(s, " ")
	for _, layout := range datetimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// SerializeDatetime renders t as "yyyy-mm-dd hh:mm:ss[.ffffff]" or, with
// withoutDay, as "yyyy-mm". The zero time renders as "".
func SerializeDatetime(t time.Time, withoutDay bool) string {
	if t.IsZero() {
		return ""
	}
	if withoutDay {
		return t.Format("2006-01")
	}
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDate renders t as dd/mm/yyyy
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// ConvertToUTC reads the wall clock of t as a time in the named zone and
// returns the same instant in UTC. The location of t itself is ignored.
func ConvertToUTC(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", timezone, err)
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC(), nil
}

// NormalizeDate parses a free-form date string. An empty string yields the
// zero time and no error.
func NormalizeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateParser.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: %w", s, err)
	}
	return t, nil
}
