package core

import "time"

const (
	// DateFormat is the wire format for calendar dates.
	DateFormat = "2006-01-02"
	// TimeFormat is the wire format for times of day.
	TimeFormat = "15:04"
)

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

func IsValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

func IsValidTime(s string) bool {
	_, err := time.Parse(TimeFormat, s)
	return err == nil
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
