package agenda

import (
	"strings"
	"testing"
	"time"

	"simacca/internal/locale"
	"simacca/internal/model"
)

func TestExportICS(t *testing.T) {
	c := locale.Default()
	recs := []model.Agenda{
		{ID: "AGD-1", Day: "2026-02-19", Time: "09:00 WITA", Title: "Rapat MBG", Location: "Aula", Status: model.StatusReferred, ReferralTargets: []string{"SEKCAM"}},
		{ID: "AGD-2", Day: "2026-02-20", Time: "--.--", Title: "Kerja Bakti", Status: model.StatusPresent},
		{ID: "AGD-3", Day: "", Title: "No day"},
	}
	out := ExportICS(recs, c, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Fatalf("events = %d\n%s", n, out)
	}
	// 09:00 in Makassar is 01:00 UTC.
	if !strings.Contains(out, "DTSTART:20260219T010000Z") {
		t.Errorf("missing timed start:\n%s", out)
	}
	if !strings.Contains(out, "20260220") {
		t.Errorf("missing all-day start:\n%s", out)
	}
	if !strings.Contains(out, "UID:AGD-1@simacca") || strings.Contains(out, "AGD-3") {
		t.Errorf("unexpected UIDs:\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY:Rapat MBG") {
		t.Errorf("missing summary:\n%s", out)
	}
}
