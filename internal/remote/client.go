// Package remote talks to the spreadsheet-backed agenda endpoint: rows are read
// with a plain GET and written with a preflight-free POST whose response is not
// trusted to confirm anything.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "simacca/internal/log"
)

const maxBodyBytes = 16 << 20

var (
	// ErrNoEndpoint is returned when no API URL is configured.
	ErrNoEndpoint = errors.New("remote: endpoint URL is empty")
	// ErrTransport wraps network failures and error statuses.
	ErrTransport = errors.New("remote: transport error")
	// ErrDecode wraps a response body that is not JSON at all.
	ErrDecode = errors.New("remote: decode error")
)

// Action selects create vs. full-record replacement on the remote side.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

// Payload is the write body. Field names follow the sheet's columns.
type Payload struct {
	Action          Action `json:"action"`
	ID              string `json:"id"`
	Date            string `json:"tanggal"`
	Time            string `json:"waktu"`
	Title           string `json:"nama_kegiatan"`
	Organizer       string `json:"penyelenggara"`
	Location        string `json:"lokasi"`
	Status          string `json:"status"`
	DressCode       string `json:"pakaian"`
	Notes           string `json:"keterangan"`
	ReferralTargets string `json:"disposisi_ke"`
	FileData        string `json:"fileData"`
	FileName        string `json:"fileName"`
	AttachmentLink  string `json:"link_undangan"`
}

// WriteResult is what the caller can know about a write.
type WriteResult string

const (
	// Ack means the endpoint answered 2xx directly.
	Ack WriteResult = "ack"
	// Unknown means the endpoint redirected (the normal case for the sheet
	// script); the write was sent but its effect was not observed.
	Unknown WriteResult = "unknown"
)

// Writer is the write capability consumed by the agenda form.
type Writer interface {
	Write(ctx context.Context, p Payload) (WriteResult, error)
}

// Client reads and writes agenda rows.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a Client for url. Reads follow redirects; writes do not,
// so a POST is never replayed as a GET.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if via[0].Method != http.MethodGet {
					return http.ErrUseLastResponse
				}
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	return c.url
}

// Fetch returns the raw row objects. A JSON body that is not an array is an
// empty batch; a body that is not JSON is ErrDecode.
func (c *Client) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	if c.url == "" {
		return nil, ErrNoEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	appLog.Debug("remote fetch start", "url", RedactURL(c.url))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	appLog.Debug("remote fetch success", "url", RedactURL(c.url), "rows", len(rows))
	return rows, nil
}

func decodeRows(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrDecode)
	}
	if len(body) == 0 || body[0] != '[' {
		appLog.Warn("remote response is not an array; treating as empty")
		return []json.RawMessage{}, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return rows, nil
}

// Write posts p as text/plain JSON. The response body is never read.
func (c *Client) Write(ctx context.Context, p Payload) (WriteResult, error) {
	if c.url == "" {
		return "", ErrNoEndpoint
	}

	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		appLog.Info("remote write acknowledged", "action", p.Action, "id", p.ID)
		return Ack, nil
	case resp.StatusCode >= 300 && resp.StatusCode <= 399:
		appLog.Info("remote write sent; outcome unknown", "action", p.Action, "id", p.ID, "status", resp.StatusCode)
		return Unknown, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrTransport, resp.Status)
	}
}

// RedactURL keeps only scheme and host so deployment tokens in the path or
// query never reach the logs.
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "remote://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redactedSuffix
}
