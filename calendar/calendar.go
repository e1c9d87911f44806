// Package calendar parses user supplied birthdays and computes the bot's notion of
// "today".
//
// The bot announces birthdays for a Paris based community. Rather than consult a
// timezone database it uses a fixed UTC+1 offset for the whole process lifetime, so
// during summer time "today" flips one hour late.
package calendar

import (
	"errors"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout is the only accepted textual birthday format.
const (
	DateLayout  = "2006-01-02"
	DateFormat  = "YYYY-MM-DD"
	DateExample = "2000-06-10"
)

// DisplayLayout renders dates the way French users expect them.
const DisplayLayout = "02/01/2006"

// ReferenceOffset is the fixed offset from UTC used to compute the current day.
const ReferenceOffset = 1 * time.Hour

// ReferenceZone is the fixed zone derived from ReferenceOffset.
var ReferenceZone = time.FixedZone("Europe/Paris", int(ReferenceOffset/time.Second))

// ErrInvalidDate is returned when a birthday is not a real YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a strict YYYY-MM-DD date. The result is midnight UTC on that day.
func ParseDate(text string) (time.Time, error) {
	if len(text) != len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}

	date, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	return date, nil
}

// Today returns the month and day of now in the reference zone.
func Today(now time.Time) (time.Month, int) {
	_, month, day := now.In(ReferenceZone).Date()
	return month, day
}

// NextMidnight returns the first 00:00 in the reference zone strictly after now.
func NextMidnight(now time.Time) time.Time {
	local := now.In(ReferenceZone)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, ReferenceZone)
}

// Format renders a stored birthday for display.
func Format(date time.Time) string {
	return date.Format(DisplayLayout)
}

var relativeMagnitudes = []humanize.RelTimeMagnitude{
	{D: humanize.Day, Format: "%s quelques heures", DivBy: 1},
	{D: 2 * humanize.Day, Format: "%s 1 jour", DivBy: 1},
	{D: humanize.Week, Format: "%s %d jours", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "%s 1 semaine", DivBy: 1},
	{D: humanize.Month, Format: "%s %d semaines", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "%s 1 mois", DivBy: 1},
	{D: humanize.Year, Format: "%s %d mois", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "%s 1 an", DivBy: 1},
	{D: math.MaxInt64, Format: "%s %d ans", DivBy: humanize.Year},
}

// NextOccurrence returns the reference midnight starting the next anniversary of
// date, today included. A February 29 birthday only recurs in leap years.
func NextOccurrence(date, now time.Time) time.Time {
	local := now.In(ReferenceZone)
	y, m, d := local.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, ReferenceZone)

	_, month, day := date.UTC().Date()
	for year := y; ; year++ {
		next := time.Date(year, month, day, 0, 0, 0, 0, ReferenceZone)
		if next.Month() == month && !next.Before(today) {
			return next
		}
	}
}

// Until renders the time from now to then in French, e.g. "dans 3 semaines".
func Until(then, now time.Time) string {
	return humanize.CustomRelTime(now, then, "dans", "il y a", relativeMagnitudes)
}
