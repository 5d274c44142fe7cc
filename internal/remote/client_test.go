package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr error
	}{
		{"array", http.StatusOK, `[{"id":"1"},null,{"id":"2"}]`, 3, nil},
		{"object is empty batch", http.StatusOK, `{"error":"quota"}`, 0, nil},
		{"not json", http.StatusOK, `<html>oops</html>`, 0, ErrDecode},
		{"server error", http.StatusInternalServerError, `[]`, 0, ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("method = %s", r.Method)
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			rows, err := NewClient(srv.URL, 0).Fetch(context.Background())
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if len(rows) != tc.want {
				t.Fatalf("rows = %d, want %d", len(rows), tc.want)
			}
		})
	}
}

func TestFetchFollowsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exec":
			http.Redirect(w, r, "/echo", http.StatusFound)
		case "/echo":
			_, _ = io.WriteString(w, `[{"id":"AGD-1"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL+"/exec", 0).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestFetchNoEndpoint(t *testing.T) {
	if _, err := NewClient("", 0).Fetch(context.Background()); !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("err = %v", err)
	}
}

func TestWrite(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/echo", http.StatusFound)
		case "/echo":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	p := Payload{Action: ActionCreate, ID: "AGD-1", Title: "Rapat", ReferralTargets: "SEKCAM, LURAH"}

	res, err := NewClient(srv.URL+"/redirect", 0).Write(context.Background(), p)
	if err != nil || res != Unknown {
		t.Fatalf("redirect: res=%v err=%v", res, err)
	}
	if contentType != "text/plain;charset=utf-8" {
		t.Errorf("content type = %q", contentType)
	}
	if got.Title != "Rapat" || got.ReferralTargets != "SEKCAM, LURAH" || got.Action != ActionCreate {
		t.Errorf("payload = %+v", got)
	}

	res, err = NewClient(srv.URL+"/echo", 0).Write(context.Background(), p)
	if err != nil || res != Ack {
		t.Fatalf("echo: res=%v err=%v", res, err)
	}

	if _, err := NewClient(srv.URL+"/fail", 0).Write(context.Background(), p); !errors.Is(err, ErrTransport) {
		t.Fatalf("fail: err=%v", err)
	}
}

func TestPayloadWireNames(t *testing.T) {
	b, err := json.Marshal(Payload{Date: "2026-02-19", Time: "09:00", Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"action", "id", "tanggal", "waktu", "nama_kegiatan", "penyelenggara", "lokasi", "status", "pakaian", "keterangan", "disposisi_ke", "fileData", "fileName", "link_undangan"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
}

func TestRedactURL(t *testing.T) {
	cases := map[string]string{
		"https://script.google.com/macros/s/ABC/exec": "https://script.google.com/...(redacted)",
		"https://example.com?token=x":                 "https://example.com/...(redacted)",
		"not a url":                                   "remote://...(redacted)",
	}
	for in, want := range cases {
		if got := RedactURL(in); got != want {
			t.Errorf("RedactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
