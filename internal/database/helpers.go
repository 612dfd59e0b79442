package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// NullableString maps empty strings to SQL NULL.
func NullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// NullableInt maps nil pointers to SQL NULL.
func NullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

// NullableID maps zero identifiers to SQL NULL.
func NullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

// NullableTime formats t in the storage layout or returns SQL NULL.
func NullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return FormatTime(*value)
}

// TimeLayout is the fixed-width UTC layout used for stored timestamps so that
// lexical ordering in SQL matches chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// TimePtr converts a nullable column to a time pointer.
func TimePtr(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := ParseTime(value.String)
	if err != nil {
		return nil
	}
	return &t
}

// IntPtr converts a nullable integer column to an int pointer.
func IntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

// BoolToInt maps booleans to SQLite integers.
func BoolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Placeholders returns count comma-separated bind markers.
func Placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
