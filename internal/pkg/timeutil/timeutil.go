package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

// FormatTimestamp renders a unix timestamp in seconds (float precision,
// as found in ChatGPT exports) as a UTC date-time string.
func FormatTimestamp(ts *float64) string {
	if ts == nil {
		return "Unknown date"
	}
	return time.Unix(int64(*ts), 0).UTC().Format("2006-01-02 15:04")
}

// FormatDate renders a unix timestamp as a UTC date, or "" when absent.
func FormatDate(ts *float64) string {
	if ts == nil {
		return ""
	}
	return time.Unix(int64(*ts), 0).UTC().Format("2006-01-02")
}
