package agenda

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"simacca/internal/locale"
	"simacca/internal/model"
)

// FilterAll disables the referral-target filter in OnDate.
const FilterAll = "ALL"

// Today returns the records whose civil day equals now's civil day.
func Today(records []model.Agenda, now time.Time, civil locale.Civil) []model.Agenda {
	return OnDate(records, now.In(civil.Loc).Format(locale.DateLayout), FilterAll)
}

// OnDate returns the records on day ("2006-01-02") that are referred to
// target, or all of that day's records when target is FilterAll or empty.
func OnDate(records []model.Agenda, day, target string) []model.Agenda {
	out := make([]model.Agenda, 0)
	if day == "" {
		return out
	}
	for _, r := range records {
		if r.Day != day {
			continue
		}
		if target != "" && target != FilterAll && !r.HasReferral(target) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Next picks the earliest of today's records by time of day; ties keep the
// collection order. With nothing left it returns model.Placeholder().
func Next(records []model.Agenda, now time.Time, civil locale.Civil) model.Agenda {
	today := Today(records, now, civil)
	if len(today) == 0 {
		return model.Placeholder()
	}
	best := 0
	bestMin := Minutes(today[0].Time)
	for i := 1; i < len(today); i++ {
		if m := Minutes(today[i].Time); m < bestMin {
			best, bestMin = i, m
		}
	}
	return today[best]
}

// Minutes converts a display time ("09:30 WITA", "13.45") into minutes since
// midnight. Unparseable parts count as zero.
func Minutes(display string) int {
	part, _, _ := strings.Cut(strings.TrimSpace(display), " ")
	sep := "."
	if strings.Contains(part, ":") {
		sep = ":"
	}
	hs, ms, _ := strings.Cut(part, sep)
	h, err := strconv.Atoi(hs)
	if err != nil {
		h = 0
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		m = 0
	}
	return h*60 + m
}

// WeekDay is one cell of the week strip.
type WeekDay struct {
	Label  string    `json:"label"`
	Number int       `json:"number"`
	Date   string    `json:"date"`
	Full   time.Time `json:"full"`
	Active bool      `json:"active"`
}

// WeekStrip returns the Monday-to-Sunday window containing selected, with the
// selected day marked active.
func WeekStrip(selected time.Time, civil locale.Civil) ([]WeekDay, error) {
	sel := civil.Midnight(selected)
	offset := (int(sel.Weekday()) + 6) % 7
	monday := sel.AddDate(0, 0, -offset)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   7,
		Dtstart: monday,
	})
	if err != nil {
		return nil, err
	}

	days := r.All()
	out := make([]WeekDay, 0, len(days))
	for _, d := range days {
		d = d.In(civil.Loc)
		out = append(out, WeekDay{
			Label:  civil.ShortDay(d),
			Number: d.Day(),
			Date:   d.Format(locale.DateLayout),
			Full:   d,
			Active: civil.SameDay(d, sel),
		})
	}
	return out, nil
}
