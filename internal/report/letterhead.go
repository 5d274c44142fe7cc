package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	appLog "simacca/internal/log"
)

// Placeholders printed when a logo cannot be loaded.
const (
	LeftPlaceholder  = "[LOGO KOTA]"
	RightPlaceholder = "[LOGO KECAMATAN]"

	// letterheadPixelHeight keeps logos sharp at 25 mm without bloating the PDF.
	letterheadPixelHeight = 300
)

// Letterhead holds the two corner logos as PNG data URIs; empty means the
// placeholder text is printed instead.
type Letterhead struct {
	Left  string
	Right string
}

// LoadLetterhead loads both logos. Failures are logged and fall back to the
// placeholders; they never fail report generation.
func LoadLetterhead(ctx context.Context, left, right string) Letterhead {
	return Letterhead{
		Left:  loadOrEmpty(ctx, left),
		Right: loadOrEmpty(ctx, right),
	}
}

func loadOrEmpty(ctx context.Context, src string) string {
	if src == "" {
		return ""
	}
	uri, err := LoadImage(ctx, src)
	if err != nil {
		appLog.Error("letterhead image unavailable; using placeholder", err, "src", src)
		return ""
	}
	return uri
}

// LoadImage reads an image from a file path or http(s) URL, scales it to a
// fixed height and returns it as a PNG data URI.
func LoadImage(ctx context.Context, src string) (string, error) {
	rc, err := open(ctx, src)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", src, err)
	}
	img = imaging.Resize(img, 0, letterheadPixelHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
