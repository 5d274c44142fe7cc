package agenda

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"simacca/internal/model"
	"simacca/internal/remote"
)

type fakeWriter struct {
	got    []remote.Payload
	result remote.WriteResult
	err    error
}

func (w *fakeWriter) Write(_ context.Context, p remote.Payload) (remote.WriteResult, error) {
	w.got = append(w.got, p)
	return w.result, w.err
}

type countingRefresher struct{ n int }

func (r *countingRefresher) Refresh(context.Context) error {
	r.n++
	return nil
}

func newTestForm(w *fakeWriter, r *countingRefresher) *Form {
	var refresher Refresher
	if r != nil {
		refresher = r
	}
	f := NewForm(w, refresher, 0)
	f.Now = func() time.Time { return time.UnixMilli(1771480800000) }
	return f
}

func TestFormRejectsIncompleteWithoutWriting(t *testing.T) {
	w := &fakeWriter{result: remote.Unknown}
	f := newTestForm(w, &countingRefresher{})
	f.OpenNew()
	_ = f.SetInput(FormInput{Title: "Rapat", Date: "2026-02-19"})

	_, err := f.Submit(context.Background())
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "Time") {
		t.Errorf("error should name the missing field: %v", err)
	}
	if len(w.got) != 0 {
		t.Fatal("write attempted for incomplete form")
	}
	if f.State() != FormOpenNew {
		t.Errorf("state = %v", f.State())
	}
}

func TestFormRejectsMalformedValues(t *testing.T) {
	f := newTestForm(&fakeWriter{}, nil)
	f.Targets = []string{"SEKCAM"}
	f.OpenNew()

	cases := []FormInput{
		{Title: "x", Date: "19/02/2026", Time: "09:00"},
		{Title: "x", Date: "2026-02-19", Time: "9am"},
		{Title: "x", Date: "2026-02-19", Time: "09:00", Status: "ABSEN"},
		{Title: "x", Date: "2026-02-19", Time: "09:00", ReferralTargets: []string{"BUPATI"}},
	}
	for _, in := range cases {
		_ = f.SetInput(in)
		if err := f.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Validate(%+v) = %v", in, err)
		}
	}
}

func TestFormCreateSubmitsAndRefreshes(t *testing.T) {
	w := &fakeWriter{result: remote.Unknown}
	r := &countingRefresher{}
	f := newTestForm(w, r)
	f.OpenNew()
	_ = f.SetInput(FormInput{
		Title:           "Rapat",
		Date:            "2026-02-19",
		Time:            "09:00",
		Status:          model.StatusReferred,
		ReferralTargets: []string{"SEKCAM", "KASI KESRA"},
	})

	res, err := f.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res != remote.Unknown {
		t.Errorf("res = %v", res)
	}
	if len(w.got) != 1 {
		t.Fatalf("writes = %d", len(w.got))
	}
	p := w.got[0]
	if p.Action != remote.ActionCreate || p.ID != "AGD-1771480800000" {
		t.Errorf("payload = %+v", p)
	}
	if p.ReferralTargets != "SEKCAM, KASI KESRA" || p.Status != "DI DISPOSISI" {
		t.Errorf("payload = %+v", p)
	}
	if r.n != 1 {
		t.Errorf("refreshes = %d", r.n)
	}
	if f.State() != FormClosed {
		t.Errorf("state = %v", f.State())
	}
}

func TestFormWriteFailureReturnsToOpen(t *testing.T) {
	w := &fakeWriter{err: remote.ErrTransport}
	r := &countingRefresher{}
	f := newTestForm(w, r)
	f.OpenNew()
	_ = f.SetInput(FormInput{Title: "Rapat", Date: "2026-02-19", Time: "09:00"})

	if _, err := f.Submit(context.Background()); !errors.Is(err, remote.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	if f.State() != FormOpenNew || r.n != 0 {
		t.Errorf("state = %v refreshes = %d", f.State(), r.n)
	}
}

func TestFormEditRoundTrip(t *testing.T) {
	rec := model.Agenda{
		ID:              "AGD-7",
		Date:            "Kamis, 19 Februari 2026",
		Time:            "09.30 WITA",
		Title:           "Sosialisasi Kebersihan",
		Status:          model.StatusReferred,
		Organizer:       "Kasi Trantibun",
		Location:        "Kantor Lurah Maloku",
		DressCode:       "Bebas Rapi",
		Notes:           "Edukasi pemilahan sampah",
		ReferralTargets: []string{"KASI TRANTIBUN"},
		AttachmentLink:  "https://drive.example.com/f/7",
	}
	w := &fakeWriter{result: remote.Ack}
	r := &countingRefresher{}
	f := newTestForm(w, r)
	f.OpenEdit(rec)

	in := f.Input()
	if in.Title != rec.Title || in.Location != rec.Location || in.DressCode != rec.DressCode || in.Notes != rec.Notes {
		t.Errorf("prefill = %+v", in)
	}
	if !reflect.DeepEqual(in.ReferralTargets, rec.ReferralTargets) {
		t.Errorf("targets = %v", in.ReferralTargets)
	}
	if in.Date != "2026-02-19" || in.Time != "09:30" {
		t.Errorf("date/time = %q %q", in.Date, in.Time)
	}

	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	p := w.got[0]
	if p.Action != remote.ActionUpdate || p.ID != "AGD-7" || p.AttachmentLink != rec.AttachmentLink {
		t.Errorf("payload = %+v", p)
	}
	if r.n != 1 {
		t.Errorf("refreshes = %d, want 1", r.n)
	}
}

func TestFormEditUnparseableDateIsBlank(t *testing.T) {
	f := newTestForm(&fakeWriter{}, nil)
	f.OpenEdit(model.Agenda{ID: "1", Date: "Thursday, February 19, 2026", Time: "pagi", Title: "x"})
	in := f.Input()
	if in.Date != "" || in.Time != "" {
		t.Errorf("date/time = %q %q", in.Date, in.Time)
	}
	if err := f.Validate(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Validate = %v", err)
	}
}

func TestFormAttachment(t *testing.T) {
	f := newTestForm(&fakeWriter{}, nil)
	if err := f.Attach("a.pdf", []byte("%PDF-1.4")); !errors.Is(err, ErrFormNotOpen) {
		t.Fatalf("closed form accepted attachment: %v", err)
	}
	f.OpenNew()

	if err := f.Attach("a.pdf", []byte("%PDF-1.4\n")); err != nil {
		t.Fatal(err)
	}
	p := f.Payload()
	if p.FileName != "a.pdf" || !strings.HasPrefix(p.FileData, "data:application/pdf;base64,") {
		t.Errorf("FileName=%q FileData=%q", p.FileName, p.FileData)
	}

	big := bytes.Repeat([]byte{'x'}, MaxAttachmentBytes+1)
	if err := f.Attach("big.bin", big); !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("err = %v", err)
	}
	if f.Payload().FileName != "a.pdf" {
		t.Error("rejected attachment replaced the previous one")
	}
}

func TestPrefillTime(t *testing.T) {
	cases := map[string]string{
		"09:00 WITA": "09:00",
		"13.45 WITA": "13:45",
		"9.00":       "",
		"--.--":      "",
	}
	for in, want := range cases {
		if got := PrefillTime(in); got != want {
			t.Errorf("PrefillTime(%q) = %q, want %q", in, got, want)
		}
	}
}
