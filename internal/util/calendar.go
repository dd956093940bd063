package util

import "time"

// DateLayout is the ISO date layout used in file names and reports.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PreviousTradingDays returns up to n weekdays strictly before day, oldest
// first. Exchange holidays are not modelled; a holiday simply has no
// snapshot on disk.
func PreviousTradingDays(day time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	d := DateOnly(day).AddDate(0, 0, -1)
	for len(days) < n {
		if !IsWeekend(d) {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

// NextTradingDay returns the first weekday strictly after day.
func NextTradingDay(day time.Time) time.Time {
	d := DateOnly(day).AddDate(0, 0, 1)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
