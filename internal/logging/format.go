package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05.000"
	// Upstream error bodies and transcripts can be long; the console keeps
	// the head and the JSON handler keeps everything.
	maxConsoleValueRunes = 240
)

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(consoleTimeLayout)
}

// plainValue renders v without quoting, for header fields.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindDuration:
		return formatDuration(v.Duration())
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	default:
		return v.String()
	}
}

// consoleValue renders v for a key=value pair: truncated and quoted when
// it would otherwise be ambiguous.
func consoleValue(v slog.Value) string {
	s := truncateRunes(plainValue(v), maxConsoleValueRunes)
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

// formatDuration rounds to the millisecond, or to the microsecond below one
// millisecond.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	case d >= time.Microsecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.String()
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + "…"
		}
		count++
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
