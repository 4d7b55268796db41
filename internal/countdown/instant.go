package countdown

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrBadInstant is returned when an expiry value cannot be interpreted.
var ErrBadInstant = errors.New("unrecognised instant")

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// 1e12 seconds is tens of thousands of years out; 1e12 ms is 2001.
const epochMillisThreshold = 1_000_000_000_000

// Zone-qualified layouts are tried first, then zone-less layouts which are
// interpreted in local time.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
	}
)

// ParseInstant parses an expiry as sent by the API: an ISO-8601 string
// (with or without zone), or a Unix epoch number in seconds or milliseconds.
func ParseInstant(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, ErrBadInstant
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, ErrBadInstant
		}
		return ParseInstantString(str)
	}

	return parseEpoch(s)
}

// ParseInstantString is ParseInstant for an already-decoded string.
func ParseInstantString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadInstant
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := parseEpoch(s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrBadInstant
}

func parseEpoch(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return time.Time{}, ErrBadInstant
	}
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f)), nil
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), nil
}
