package store

import (
	"time"
)

// storeTimeLayout keeps full precision and sorts lexicographically for UTC
// values, so ORDER BY on the text column is chronological.
const storeTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatStoreTime(t time.Time) string {
	return t.UTC().Format(storeTimeLayout)
}

func parseStoreTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// formatRemoteModified stores a zero time as the empty string, meaning the
// record has not been synced yet.
func formatRemoteModified(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatStoreTime(t)
}
