// utils/dates.go
package utils

import "time"

var (
	weekdayLabels = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}
	monthLabels   = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func BeginningOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from start to end, each read in its own
// location. Daylight-saving days of 23 or 25 hours still count as one.
func DaysBetween(start, end time.Time) int {
	return int(civilDate(end).Sub(civilDate(start)).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WeekdayLabel is the Indonesian abbreviation of t's weekday.
func WeekdayLabel(t time.Time) string {
	return weekdayLabels[t.Weekday()]
}

// MonthLabel is the Indonesian abbreviation of t's month.
func MonthLabel(t time.Time) string {
	return monthLabels[t.Month()-1]
}
