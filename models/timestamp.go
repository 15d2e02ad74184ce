// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used on the wire: UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in [TimestampLayout].
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts ISO-8601 timestamps with or without fractional
// seconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// TruncateTimestamp drops precision below what the wire format carries, so a
// value survives a serialize/apply round trip unchanged.
func TruncateTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
