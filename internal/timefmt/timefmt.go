// Package timefmt renders commit timestamps as fixed-width absolute strings and
// as coarse "N units ago" strings.
package timefmt

import (
	"fmt"
	"time"
)

const secondsPerDay = 86400

// FormatTime formats t in its own zone offset as YYYY-MM-DD HH:MM:SS.
func FormatTime(t time.Time) string {
	_, offset := t.Zone()
	return FormatAbsolute(t.Unix(), offset/60)
}

// FormatAbsolute formats secs (seconds since the Unix epoch) shifted by
// offsetMinutes as YYYY-MM-DD HH:MM:SS.
func FormatAbsolute(secs int64, offsetMinutes int) string {
	local := secs + int64(offsetMinutes)*60

	days := floorDiv(local, secondsPerDay)
	timeOfDay := (local%secondsPerDay + secondsPerDay) % secondsPerDay

	hours := timeOfDay / 3600
	minutes := (timeOfDay % 3600) / 60
	seconds := timeOfDay % 60

	year, month, day := CivilFromDays(days)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hours, minutes, seconds)
}

// CivilFromDays converts a day count relative to 1970-01-01 into a proleptic
// Gregorian (year, month, day).
func CivilFromDays(days int64) (year int64, month, day int) {
	z := days + 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097                                  // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365 // [0, 399]
	doy := doe - (365*yoe + yoe/4 - yoe/100)               // [0, 365]
	mp := (5*doy + 2) / 153                                // [0, 11], March-based
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	y := yoe + era*400
	if m <= 2 {
		y++
	}
	return y, int(m), int(d)
}

// floorDiv rounds toward negative infinity so instants before the epoch land
// on the previous day.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FormatRelative describes an elapsed number of seconds using the largest
// fitting unit. Months are 30 days and years 365 days.
func FormatRelative(secsAgo int64) string {
	if secsAgo < 0 {
		return "in the future"
	}
	if secsAgo < 60 {
		return ago(secsAgo, "second")
	}
	mins := secsAgo / 60
	if mins < 60 {
		return ago(mins, "minute")
	}
	hours := mins / 60
	if hours < 24 {
		return ago(hours, "hour")
	}
	days := hours / 24
	if days < 7 {
		return ago(days, "day")
	}
	weeks := days / 7
	if weeks < 4 {
		return ago(weeks, "week")
	}
	months := days / 30
	if months < 12 {
		return ago(months, "month")
	}
	return ago(days/365, "year")
}

// Since is FormatRelative for the time elapsed between t and now.
func Since(t, now time.Time) string {
	return FormatRelative(now.Unix() - t.Unix())
}

func ago(n int64, unit string) string {
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
