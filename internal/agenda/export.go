package agenda

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"simacca/internal/locale"
	"simacca/internal/model"
)

// defaultEventLength is used for DTEND since the sheet stores only a start.
const defaultEventLength = time.Hour

// ExportICS renders records with a known day as an iCalendar feed. Records
// without a parseable time become all-day events.
func ExportICS(records []model.Agenda, civil locale.Civil, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//SI-MACCA//Agenda Camat//ID")
	cal.SetXWRCalName("Agenda Camat")

	for _, rec := range records {
		if rec.Day == "" {
			continue
		}
		day, err := civil.ParseDate(rec.Day)
		if err != nil {
			continue
		}

		ev := cal.AddEvent(rec.ID + "@simacca")
		ev.SetDtStampTime(now)
		ev.SetSummary(rec.Title)
		if rec.Location != "" {
			ev.SetLocation(rec.Location)
		}
		if desc := describe(rec); desc != "" {
			ev.SetDescription(desc)
		}
		ev.SetProperty(ical.ComponentPropertyCategories, string(rec.Status))
		if rec.AttachmentLink != "" {
			ev.SetURL(rec.AttachmentLink)
		}

		if clock := PrefillTime(rec.Time); clock != "" {
			m := Minutes(clock)
			start := day.Add(time.Duration(m) * time.Minute)
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(defaultEventLength))
		} else {
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}

	return cal.Serialize()
}

func describe(rec model.Agenda) string {
	var lines []string
	if rec.Organizer != "" {
		lines = append(lines, "Penyelenggara: "+rec.Organizer)
	}
	if rec.DressCode != "" {
		lines = append(lines, "Pakaian: "+rec.DressCode)
	}
	if rec.Status == model.StatusReferred && len(rec.ReferralTargets) > 0 {
		lines = append(lines, "Disposisi: "+JoinReferrals(rec.ReferralTargets))
	}
	if rec.Notes != "" {
		lines = append(lines, rec.Notes)
	}
	return strings.Join(lines, "\n")
}

// Detail formatting used by the agenda detail view.

// DetailDate returns a long date for display. Values already in long form
// pass through; unparseable values are returned as-is; empty becomes "-".
func DetailDate(raw string, civil locale.Civil) string {
	if raw == "" {
		return model.EmptyPlaceholder
	}
	if strings.Contains(raw, ",") && len(raw) > 10 {
		return raw
	}
	if t, ok := parseISO(raw); ok {
		return civil.LongDate(t)
	}
	if t, err := civil.ParseDate(raw); err == nil {
		return civil.LongDate(t)
	}
	return raw
}

// DetailTime appends the zone suffix when missing.
func DetailTime(raw string, civil locale.Civil) string {
	if raw == "" || raw == model.UnknownTime {
		return model.UnknownTime
	}
	if civil.Suffix != "" && strings.Contains(raw, civil.Suffix) {
		return raw
	}
	if t, ok := parseISO(raw); ok {
		return civil.Clock(t)
	}
	if civil.Suffix == "" {
		return raw
	}
	return raw + " " + civil.Suffix
}
