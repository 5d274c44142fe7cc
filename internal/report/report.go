// Package report builds the printable daily agenda report: one page per day in
// a validated date range, rendered to PDF by headless Chromium.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/model"
)

// MaxRangeDays is the longest inclusive range a report may cover.
const MaxRangeDays = 31

var (
	ErrMissingRange   = errors.New("report: start and end dates are required")
	ErrInvalidDate    = errors.New("report: dates must be YYYY-MM-DD")
	ErrEndBeforeStart = errors.New("report: end date is before start date")
	ErrRangeTooLong   = fmt.Errorf("report: range exceeds %d days", MaxRangeDays)
	// ErrNoData is informational: the range is valid but holds no agenda.
	ErrNoData = errors.New("report: no agenda in range")
)

// IsValidation reports whether err is a range validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingRange) || errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrEndBeforeStart) || errors.Is(err, ErrRangeTooLong)
}

// Range is an inclusive civil date range.
type Range struct {
	StartRaw string
	EndRaw   string
	Start    time.Time
	End      time.Time
}

// ParseRange validates start/end ("2006-01-02"): both present, end not before
// start, at most MaxRangeDays days inclusive.
func ParseRange(start, end string, civil locale.Civil) (Range, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return Range{}, ErrMissingRange
	}
	s, err := civil.ParseDate(start)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidDate, start)
	}
	e, err := civil.ParseDate(end)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidDate, end)
	}
	r := Range{StartRaw: start, EndRaw: end, Start: s, End: e}
	if e.Before(s) {
		return r, ErrEndBeforeStart
	}
	if r.Days() > MaxRangeDays {
		return r, ErrRangeTooLong
	}
	return r, nil
}

// Days is the inclusive number of calendar days in r.
func (r Range) Days() int {
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	a := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}

// Contains reports whether the civil day key ("2006-01-02") is inside r.
func (r Range) Contains(day string) bool {
	if day == "" {
		return false
	}
	return day >= r.Start.Format(locale.DateLayout) && day <= r.End.Format(locale.DateLayout)
}

// Filename embeds the literal start/end strings.
func (r Range) Filename() string {
	return fmt.Sprintf("Laporan_Agenda_%s_sd_%s.pdf", r.StartRaw, r.EndRaw)
}

// Signatory is the acknowledgement block under each day's table.
type Signatory struct {
	Heading  string
	Position string
	Name     string
	NIP      string
	Rank     string
}

// Options are the fixed texts printed on every page.
type Options struct {
	Title         string
	OfficialLabel string
	Signatory     Signatory
	Letterhead    Letterhead
}

// Row is one table line.
type Row struct {
	No        int
	Time      string
	Title     string
	Location  string
	DressCode string
	Referrals string
	Official  string
	Status    string
	Remarks   string
}

// Day is one calendar day of the report.
type Day struct {
	Key       string
	DayName   string
	DateLabel string
	Rows      []Row
	Layout    Layout
}

// Document is the renderer-independent report.
type Document struct {
	Title     string
	Range     Range
	Days      []Day
	Signatory Signatory
	Official  string
	Letter    Letterhead
	Pages     int
}

// Build filters records into r, groups them by day in chronological order and
// lays each day out. It returns ErrNoData when nothing falls in the range.
func Build(records []model.Agenda, r Range, opts Options, civil locale.Civil) (*Document, error) {
	groups := make(map[string][]model.Agenda)
	for _, rec := range records {
		if !r.Contains(rec.Day) {
			continue
		}
		groups[rec.Day] = append(groups[rec.Day], rec)
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := &Document{
		Title:     opts.Title,
		Range:     r,
		Signatory: opts.Signatory,
		Official:  opts.OfficialLabel,
		Letter:    opts.Letterhead,
	}
	for _, key := range keys {
		date, err := civil.ParseDate(key)
		if err != nil {
			continue
		}
		day := Day{
			Key:       key,
			DayName:   civil.ReportDay(date),
			DateLabel: civil.ReportDate(date),
		}
		for i, rec := range groups[key] {
			day.Rows = append(day.Rows, toRow(i+1, rec, opts.OfficialLabel))
		}
		day.Layout = LayoutDay(day.Rows)
		doc.Pages += day.Layout.Pages
		doc.Days = append(doc.Days, day)
	}
	return doc, nil
}

func toRow(no int, rec model.Agenda, official string) Row {
	clock, _, _ := strings.Cut(rec.Time, " ")
	referrals := strings.Join(rec.ReferralTargets, ", ")
	return Row{
		No:        no,
		Time:      orDash(clock),
		Title:     orDash(rec.Title),
		Location:  orDash(rec.Location),
		DressCode: orDash(rec.DressCode),
		Referrals: orDash(referrals),
		Official:  official,
		Status:    orDash(string(rec.Status)),
		Remarks:   "",
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.EmptyPlaceholder
	}
	return s
}

// Renderer turns a Document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, doc *Document) ([]byte, error)
}

// Result is a generated report ready to be saved or streamed.
type Result struct {
	Filename string
	PDF      []byte
	Document *Document
}

// Save writes the PDF under dir and returns the full path.
func (r *Result) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.Filename)
	if err := os.WriteFile(path, r.PDF, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Generator validates a range, builds the document and renders it.
type Generator struct {
	Renderer Renderer
	Options  Options
	Civil    locale.Civil
}

// Generate produces the report for [start, end]. Validation errors and
// ErrNoData are returned before anything is rendered.
func (g *Generator) Generate(ctx context.Context, records []model.Agenda, start, end string) (*Result, error) {
	r, err := ParseRange(start, end, g.Civil)
	if err != nil {
		return nil, err
	}
	doc, err := Build(records, r, g.Options, g.Civil)
	if err != nil {
		return nil, err
	}

	pdf, err := g.Renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("report: render failed: %w", err)
	}

	appLog.Info("report generated", "start", r.StartRaw, "end", r.EndRaw, "days", len(doc.Days), "pages", doc.Pages, "bytes", len(pdf))
	return &Result{Filename: r.Filename(), PDF: pdf, Document: doc}, nil
}
