package report

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Page geometry in millimetres (A4 landscape).
const (
	PageWidth  = 297.0
	PageHeight = 210.0

	TableStartY      = 45.0
	ContinuationTopY = 14.0
	BottomMargin     = 14.0

	// The signature block starts 10 mm under the table and needs 40 mm.
	SignatureGap    = 10.0
	SignatureHeight = 40.0

	cellPadding = 2.0
	// 8 pt Helvetica: 1.15 line spacing, ~0.5 em average glyph width.
	lineHeight = 8 * 1.15 * 0.3528
	charWidth  = 8 * 0.5 * 0.3528
)

// ColumnWidths are the fixed table column widths in mm.
var ColumnWidths = [9]float64{10, 15, 60, 40, 25, 45, 20, 30, 15}

// Headers are the table column titles.
var Headers = [9]string{
	"NO.", "WAKTU", "KEGIATAN", "TEMPAT/LOKASI", "PAKAIAN",
	"PEJABAT PENDAMPING/PEJABAT YANG MEWAKILI", "PEJABAT", "KETERANGAN", "HUMAS",
}

// Layout is the estimated vertical placement of one day's table.
type Layout struct {
	// Pages is the number of pages the day occupies, signature included.
	Pages int
	// FinalY is where the table ends on its last page.
	FinalY float64
	// SignatureOnNewPage is set when the signature does not fit below the table.
	SignatureOnNewPage bool
}

// LayoutDay estimates row heights from wrapped line counts and flows the rows
// over pages, repeating the header row on each continuation page.
func LayoutDay(rows []Row) Layout {
	head := rowHeight(Headers[:])
	y := TableStartY + head
	pages := 1

	for _, r := range rows {
		h := rowHeight(r.cells())
		if y+h > PageHeight-BottomMargin {
			pages++
			y = ContinuationTopY + head
		}
		y += h
	}

	l := Layout{Pages: pages, FinalY: y}
	if y+SignatureGap+SignatureHeight > PageHeight {
		l.SignatureOnNewPage = true
		l.Pages++
	}
	return l
}

func (r Row) cells() []string {
	return []string{
		strconv.Itoa(r.No), r.Time, r.Title, r.Location, r.DressCode,
		r.Referrals, r.Official, r.Status, r.Remarks,
	}
}

func rowHeight(cells []string) float64 {
	maxLines := 1
	for i, c := range cells {
		if i >= len(ColumnWidths) {
			break
		}
		if n := lineCount(c, ColumnWidths[i]); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPadding
}

// lineCount wraps text to the column's character capacity, breaking long
// words when they do not fit on a line of their own.
func lineCount(text string, width float64) int {
	limit := int((width - 2*cellPadding) / charWidth)
	if limit < 1 {
		limit = 1
	}
	if text == "" {
		return 1
	}
	wrapped := wrap.String(wordwrap.String(text, limit), limit)
	return strings.Count(wrapped, "\n") + 1
}
