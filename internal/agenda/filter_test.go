package agenda

import (
	"testing"
	"time"

	"simacca/internal/locale"
	"simacca/internal/model"
)

func sample() []model.Agenda {
	return []model.Agenda{
		{ID: "1", Day: "2026-02-16", Time: "13.30 WITA", Title: "Evaluasi", ReferralTargets: []string{}},
		{ID: "2", Day: "2026-02-16", Time: "09:00 WITA", Title: "Rapat MBG", Status: model.StatusReferred, ReferralTargets: []string{"SEKCAM", "KASI KESRA"}},
		{ID: "3", Day: "2026-02-16", Time: "09.00 WITA", Title: "Sertijab", ReferralTargets: []string{}},
		{ID: "4", Day: "2026-02-17", Time: "08:00 WITA", Title: "Besok", ReferralTargets: []string{"SEKCAM"}},
		{ID: "5", Day: "", Time: "--.--", Title: "Tanpa tanggal"},
	}
}

func TestToday(t *testing.T) {
	c := locale.Default()
	// 2026-02-15 17:00 UTC is already the 16th in Makassar.
	now := time.Date(2026, 2, 15, 17, 0, 0, 0, time.UTC)
	got := Today(sample(), now, c)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for _, r := range got {
		if r.Day != "2026-02-16" {
			t.Errorf("unexpected day %q", r.Day)
		}
	}
}

func TestNextPicksEarliestKeepingOrderOnTies(t *testing.T) {
	c := locale.Default()
	now := time.Date(2026, 2, 16, 7, 0, 0, 0, c.Loc)
	got := Next(sample(), now, c)
	if got.ID != "2" {
		t.Fatalf("Next = %q, want 2 (first of the 09:00 tie)", got.ID)
	}
}

func TestNextPlaceholder(t *testing.T) {
	c := locale.Default()
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, c.Loc)
	got := Next(sample(), now, c)
	if got.ID != "0" || got.Title != model.NoAgendaTitle || got.Time != "--.--" {
		t.Fatalf("placeholder = %#v", got)
	}
}

func TestOnDateWithReferralFilter(t *testing.T) {
	cases := []struct {
		day, target string
		want        []string
	}{
		{"2026-02-16", FilterAll, []string{"1", "2", "3"}},
		{"2026-02-16", "", []string{"1", "2", "3"}},
		{"2026-02-16", "SEKCAM", []string{"2"}},
		{"2026-02-16", "LURAH", nil},
		{"2026-02-17", "SEKCAM", []string{"4"}},
		{"", FilterAll, nil},
	}
	for _, tc := range cases {
		got := OnDate(sample(), tc.day, tc.target)
		if len(got) != len(tc.want) {
			t.Errorf("OnDate(%q,%q) len = %d, want %d", tc.day, tc.target, len(got), len(tc.want))
			continue
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Errorf("OnDate(%q,%q)[%d] = %q, want %q", tc.day, tc.target, i, got[i].ID, tc.want[i])
			}
		}
	}
}

func TestMinutes(t *testing.T) {
	cases := map[string]int{
		"09:00 WITA": 540,
		"13.30 WITA": 810,
		"07:05":      425,
		"--.--":      0,
		"":           0,
		"pagi":       0,
	}
	for in, want := range cases {
		if got := Minutes(in); got != want {
			t.Errorf("Minutes(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestWeekStrip(t *testing.T) {
	c := locale.Default()
	cases := []struct {
		name     string
		selected time.Time
		monday   string
		active   int
	}{
		{"thursday", time.Date(2026, 2, 19, 10, 0, 0, 0, c.Loc), "2026-02-16", 3},
		{"sunday is last", time.Date(2026, 2, 22, 10, 0, 0, 0, c.Loc), "2026-02-16", 6},
		{"monday", time.Date(2026, 2, 16, 0, 0, 0, 0, c.Loc), "2026-02-16", 0},
		{"across month", time.Date(2026, 3, 1, 12, 0, 0, 0, c.Loc), "2026-02-23", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			week, err := WeekStrip(tc.selected, c)
			if err != nil {
				t.Fatal(err)
			}
			if len(week) != 7 {
				t.Fatalf("len = %d", len(week))
			}
			if week[0].Date != tc.monday || week[0].Label != "Sen" || week[6].Label != "Min" {
				t.Fatalf("first = %+v last = %+v", week[0], week[6])
			}
			for i, d := range week {
				if d.Active != (i == tc.active) {
					t.Errorf("day %d active = %v", i, d.Active)
				}
			}
		})
	}
}
