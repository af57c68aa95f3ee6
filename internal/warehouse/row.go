package warehouse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one result row keyed by column name.
//
// Every accessor takes one or more candidate column names and reads the
// first one present with a non-NULL value. Views do not agree on naming, so
// callers pass both spellings, e.g. r.Float("replicationLagMinutes",
// "replication_lag_minutes").
type Row map[string]any

// Value returns the first present non-NULL value among keys.
func (r Row) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the value as text, or "" when absent.
func (r Row) String(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the value as a float64, or 0 when absent or not numeric.
func (r Row) Float(keys ...string) float64 {
	f, _ := r.number(keys...)
	return f
}

// NullableFloat returns nil when the value is absent or not numeric.
func (r Row) NullableFloat(keys ...string) *float64 {
	f, ok := r.number(keys...)
	if !ok {
		return nil
	}
	return &f
}

// Int returns the value truncated to an int64, or 0 when absent.
func (r Row) Int(keys ...string) int64 {
	v, ok := r.Value(keys...)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
	}
	f, _ := r.number(keys...)
	return int64(f)
}

// Scalar returns numbers as float64, text as string, and nil when absent.
// It is meant for loosely typed cells such as a KPI value.
func (r Row) Scalar(keys ...string) any {
	v, ok := r.Value(keys...)
	if !ok {
		return nil
	}
	if f, ok := toFloat(v); ok {
		if _, isText := v.(string); !isText {
			return f
		}
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the value as a time, parsing text in the common layouts.
func (r Row) Time(keys ...string) (time.Time, bool) {
	v, ok := r.Value(keys...)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// Date returns the value as a YYYY-MM-DD string.
func (r Row) Date(keys ...string) string {
	if t, ok := r.Time(keys...); ok {
		return t.Format("2006-01-02")
	}
	s := r.String(keys...)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func (r Row) number(keys ...string) (float64, bool) {
	v, ok := r.Value(keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
