package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID          int64     // ID is assigned by the store on insert and never reused
	Firstname   string    // Firstname of the user, 1-50 characters
	Lastname    string    // Lastname of the user, 1-50 characters
	Age         int       // Age in years, within [0, 150]
	DateOfBirth time.Time // DateOfBirth is a calendar date held at UTC midnight
}

// DateLayout is the wire and storage layout of a calendar date.
const DateLayout = "2006-01-02"

// CalendarDate truncates t to its calendar date at UTC midnight.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t), nil
}
