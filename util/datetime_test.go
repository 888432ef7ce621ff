package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDatetime(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOk bool
	}{
		{in: "2024-03-15 10:20:30", want: time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), wantOk: true},
		{in: "2024-03-15 10:20", want: time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC), wantOk: true},
		{in: "  2024-03-15T10:20 ", want: time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC), wantOk: true},
		{in: "2024-03-15T10:20:30", want: time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), wantOk: true},
		{in: "15/03/2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), wantOk: true},
		{in: "5/3/2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), wantOk: true},
		{in: "2024-3-5 9:05", want: time.Date(2024, 3, 5, 9, 5, 0, 0, time.UTC), wantOk: true},
		{in: "2024/03/15"},
		{in: "32/01/2024"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := GetDatetime(tt.in)
			require.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestSerializeDatetime(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)

	assert.Equal(t, "", SerializeDatetime(time.Time{}, false))
	assert.Equal(t, "2024-03-15 10:20:30", SerializeDatetime(ts, false))
	assert.Equal(t, "2024-03-15 10:20:30.123456", SerializeDatetime(ts.Add(123456*time.Microsecond), false))
	assert.Equal(t, "2024-03", SerializeDatetime(ts, true))
	assert.Equal(t, "15/03/2024", FormatDate(ts))
}

func TestConvertToUTC(t *testing.T) {
	naive := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	got, err := ConvertToUTC(naive, "Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC), got)

	got, err = ConvertToUTC(naive, "Europe/Rome")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), got)

	_, err = ConvertToUTC(naive, "Nowhere/Special")
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-15", " 15/03/2024 ", "March 15, 2024"} {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%q parsed as %s", in, got)
	}

	got, err := NormalizeDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = NormalizeDate("not a date")
	assert.Error(t, err)
}
