package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simacca/internal/locale"
	"simacca/internal/model"
)

type fakeRenderer struct {
	calls int
	doc   *Document
}

func (f *fakeRenderer) Render(_ context.Context, doc *Document) ([]byte, error) {
	f.calls++
	f.doc = doc
	return []byte("%PDF-fake"), nil
}

func testOptions() Options {
	return Options{
		Title:         "RENCANA KEGIATAN KECAMATAN UJUNG PANDANG",
		OfficialLabel: "CAMAT",
		Signatory: Signatory{
			Heading:  "MENGETAHUI,",
			Position: "SEKRETARIS CAMAT",
			Name:     "FIRMAN JAMALUDDIN, S.STP",
			NIP:      "19820103 200112 1 003",
			Rank:     "Penata TK I - IIId",
		},
	}
}

func records() []model.Agenda {
	return []model.Agenda{
		{ID: "1", Day: "2026-02-19", Time: "09:00 WITA", Title: "Rapat MBG", Location: "Aula", DressCode: "Batik", Status: model.StatusReferred, ReferralTargets: []string{"SEKCAM", "KASI KESRA"}},
		{ID: "2", Day: "2026-02-16", Time: "13.30 WITA", Title: "Evaluasi", Status: model.StatusPresent},
		{ID: "3", Day: "2026-02-19", Time: "15:00 WITA", Title: "Sosialisasi", Status: model.StatusPresent},
		{ID: "4", Day: "2026-03-01", Time: "08:00 WITA", Title: "Di luar rentang"},
		{ID: "5", Day: "", Time: "--.--", Title: "Tanpa tanggal"},
	}
}

func TestParseRange(t *testing.T) {
	c := locale.Default()
	cases := []struct {
		start, end string
		want       error
		days       int
	}{
		{"2026-02-01", "2026-02-01", nil, 1},
		{"2026-01-01", "2026-01-31", nil, 31},
		{"2026-01-01", "2026-02-01", ErrRangeTooLong, 32},
		{"2026-02-10", "2026-02-09", ErrEndBeforeStart, 0},
		{"", "2026-02-09", ErrMissingRange, 0},
		{"2026-02-10", "", ErrMissingRange, 0},
		{"10/02/2026", "2026-02-12", ErrInvalidDate, 0},
	}
	for _, tc := range cases {
		r, err := ParseRange(tc.start, tc.end, c)
		if !errors.Is(err, tc.want) {
			t.Errorf("ParseRange(%q,%q) err = %v, want %v", tc.start, tc.end, err, tc.want)
			continue
		}
		if tc.days > 0 && r.Days() != tc.days {
			t.Errorf("ParseRange(%q,%q) days = %d, want %d", tc.start, tc.end, r.Days(), tc.days)
		}
		if tc.want != nil && !IsValidation(err) {
			t.Errorf("IsValidation(%v) = false", err)
		}
	}
}

func TestGenerateRejectsInvalidRangeWithoutRendering(t *testing.T) {
	fr := &fakeRenderer{}
	g := &Generator{Renderer: fr, Options: testOptions(), Civil: locale.Default()}

	for _, rng := range [][2]string{{"2026-02-20", "2026-02-19"}, {"2026-01-01", "2026-02-01"}} {
		res, err := g.Generate(context.Background(), records(), rng[0], rng[1])
		if !IsValidation(err) || res != nil {
			t.Errorf("Generate(%v) = %v, %v", rng, res, err)
		}
	}
	if fr.calls != 0 {
		t.Fatalf("renderer called %d times", fr.calls)
	}
}

func TestGenerateNoData(t *testing.T) {
	fr := &fakeRenderer{}
	g := &Generator{Renderer: fr, Options: testOptions(), Civil: locale.Default()}

	res, err := g.Generate(context.Background(), records(), "2026-04-01", "2026-04-30")
	if !errors.Is(err, ErrNoData) || res != nil {
		t.Fatalf("Generate = %v, %v", res, err)
	}
	if fr.calls != 0 {
		t.Fatal("renderer called for empty range")
	}
}

func TestGenerateGroupsByDay(t *testing.T) {
	fr := &fakeRenderer{}
	g := &Generator{Renderer: fr, Options: testOptions(), Civil: locale.Default()}

	res, err := g.Generate(context.Background(), records(), "2026-02-16", "2026-02-28")
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "Laporan_Agenda_2026-02-16_sd_2026-02-28.pdf" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if !bytes.Equal(res.PDF, []byte("%PDF-fake")) {
		t.Errorf("PDF = %q", res.PDF)
	}

	doc := fr.doc
	if len(doc.Days) != 2 || doc.Days[0].Key != "2026-02-16" || doc.Days[1].Key != "2026-02-19" {
		t.Fatalf("days = %+v", doc.Days)
	}
	if doc.Days[1].DayName != "KAMIS" || doc.Days[1].DateLabel != "19 FEBRUARI 2026" {
		t.Errorf("header = %q %q", doc.Days[1].DayName, doc.Days[1].DateLabel)
	}

	rows := doc.Days[1].Rows
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	want := Row{No: 1, Time: "09:00", Title: "Rapat MBG", Location: "Aula", DressCode: "Batik",
		Referrals: "SEKCAM, KASI KESRA", Official: "CAMAT", Status: "DI DISPOSISI"}
	if rows[0] != want {
		t.Errorf("row = %+v\nwant %+v", rows[0], want)
	}
	if rows[1].No != 2 || rows[1].Location != "-" || rows[1].Referrals != "-" {
		t.Errorf("second row = %+v", rows[1])
	}
	if doc.Pages != 2 {
		t.Errorf("pages = %d", doc.Pages)
	}
}

func shortRows(n int) []Row {
	out := make([]Row, n)
	for i := range out {
		out[i] = Row{No: i + 1, Time: "09:00", Title: "Rapat", Location: "Aula", DressCode: "Pdh",
			Referrals: "-", Official: "CAMAT", Status: "HADIR"}
	}
	return out
}

func TestLayoutSignaturePlacement(t *testing.T) {
	cases := []struct {
		rows      int
		pages     int
		newPageSg bool
	}{
		{1, 1, false},
		{14, 1, false},
		{15, 2, true},
		{25, 2, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d rows", tc.rows), func(t *testing.T) {
			l := LayoutDay(shortRows(tc.rows))
			if l.Pages != tc.pages || l.SignatureOnNewPage != tc.newPageSg {
				t.Errorf("layout = %+v", l)
			}
		})
	}
}

func TestLongTextGrowsRows(t *testing.T) {
	short := LayoutDay(shortRows(1))
	long := shortRows(1)
	long[0].Title = strings.Repeat("Rapat koordinasi lintas sektor ", 10)
	if got := LayoutDay(long); got.FinalY <= short.FinalY {
		t.Errorf("FinalY long=%v short=%v", got.FinalY, short.FinalY)
	}
}

func TestRenderHTML(t *testing.T) {
	doc, err := Build(records(), mustRange(t, "2026-02-19", "2026-02-19"), testOptions(), locale.Default())
	if err != nil {
		t.Fatal(err)
	}
	doc.Days[0].Layout.SignatureOnNewPage = true

	out, err := RenderHTML(doc)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	for _, want := range []string{
		"RENCANA KEGIATAN KECAMATAN UJUNG PANDANG",
		"PEJABAT PENDAMPING/PEJABAT YANG MEWAKILI",
		": KAMIS",
		": 19 FEBRUARI 2026",
		LeftPlaceholder,
		RightPlaceholder,
		"FIRMAN JAMALUDDIN, S.STP",
		`class="signature continued"`,
		"Rapat MBG",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}

	doc.Letter.Left = "data:image/png;base64,AAAA"
	out, err = RenderHTML(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `src="data:image/png;base64,AAAA"`) {
		t.Error("letterhead data URI was not emitted verbatim")
	}
}

func TestResultSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := &Result{Filename: "Laporan_Agenda_a_sd_b.pdf", PDF: []byte("%PDF")}
	path, err := r.Save(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "%PDF" {
		t.Fatalf("read back %q, %v", b, err)
	}
}

func TestLoadLetterheadFallsBack(t *testing.T) {
	lh := LoadLetterhead(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "")
	if lh.Left != "" || lh.Right != "" {
		t.Fatalf("letterhead = %+v", lh)
	}
}

func mustRange(t *testing.T, a, b string) Range {
	t.Helper()
	r, err := ParseRange(a, b, locale.Default())
	if err != nil {
		t.Fatal(err)
	}
	return r
}
