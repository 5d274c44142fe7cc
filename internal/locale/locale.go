// Package locale formats dates and times the way the district office prints them
// (Indonesian names, a fixed civil timezone and its zone suffix).
package locale

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appLog "simacca/internal/log"
)

const (
	DefaultTimezone = "Asia/Makassar"
	DefaultSuffix   = "WITA"

	// DateLayout is the ISO calendar date used by forms and report keys.
	DateLayout = "2006-01-02"
)

var dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var shortDayNames = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var upper = cases.Upper(language.Indonesian)

// Civil is the fixed display zone used for every date/time rendering,
// independent of the host's local zone.
type Civil struct {
	Loc    *time.Location
	Suffix string
}

// NewCivil resolves the IANA zone name. An unknown zone falls back to UTC and
// is logged; an empty suffix is left empty.
func NewCivil(name, suffix string) Civil {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", name)
		loc = time.UTC
	}
	return Civil{Loc: loc, Suffix: suffix}
}

// Default returns Asia/Makassar with the WITA suffix.
func Default() Civil {
	return NewCivil(DefaultTimezone, DefaultSuffix)
}

// Clock renders t as "HH:MM" plus the zone suffix.
func (c Civil) Clock(t time.Time) string {
	s := t.In(c.Loc).Format("15:04")
	if c.Suffix == "" {
		return s
	}
	return s + " " + c.Suffix
}

// LongDate renders t as "Kamis, 19 Februari 2026".
func (c Civil) LongDate(t time.Time) string {
	t = t.In(c.Loc)
	return fmt.Sprintf("%s, %d %s %d", dayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// MonthYear renders t as "Februari 2026".
func (c Civil) MonthYear(t time.Time) string {
	t = t.In(c.Loc)
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// ShortDay returns the abbreviated weekday ("Sen", "Sel", ...).
func (c Civil) ShortDay(t time.Time) string {
	return shortDayNames[t.In(c.Loc).Weekday()]
}

// ReportDay returns the upper-cased weekday used in report headers ("KAMIS").
func (c Civil) ReportDay(t time.Time) string {
	return upper.String(dayNames[t.In(c.Loc).Weekday()])
}

// ReportDate returns "19 FEBRUARI 2026".
func (c Civil) ReportDate(t time.Time) string {
	t = t.In(c.Loc)
	return fmt.Sprintf("%d %s %d", t.Day(), upper.String(monthNames[t.Month()-1]), t.Year())
}

// Midnight truncates t to the start of its civil day.
func (c Civil) Midnight(t time.Time) time.Time {
	t = t.In(c.Loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Loc)
}

// ParseDate parses an ISO calendar date as a civil midnight.
func (c Civil) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), c.Loc)
}

// SameDay reports whether a and b fall on the same civil calendar day.
func (c Civil) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.Loc).Date()
	by, bm, bd := b.In(c.Loc).Date()
	return ay == by && am == bm && ad == bd
}

// MonthNumber maps an Indonesian month name to its number (1-12).
func MonthNumber(name string) (int, bool) {
	for i, m := range monthNames {
		if m == name {
			return i + 1, true
		}
	}
	return 0, false
}

// ParseLongDate reverses LongDate by splitting on spaces: "Kamis, 19 Februari 2026"
// becomes "2026-02-19". Only the exact layout is understood; anything else
// reports false.
func ParseLongDate(s string) (string, bool) {
	parts := strings.Split(s, " ")
	if len(parts) < 4 {
		return "", false
	}
	day := parts[1]
	if day == "" || len(day) > 2 {
		return "", false
	}
	for _, r := range day {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if len(day) == 1 {
		day = "0" + day
	}
	month, ok := MonthNumber(parts[2])
	if !ok {
		return "", false
	}
	year := parts[3]
	if year == "" {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%s", year, month, day), true
}
