// Package agenda holds the client-side agenda cache: normalization of remote
// rows, the refreshable store, view filters, the create/edit form and the
// calendar feed export.
package agenda

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/model"
)

// Remote column names.
const (
	fieldID        = "id"
	fieldDate      = "tanggal"
	fieldTime      = "waktu"
	fieldTitle     = "nama_kegiatan"
	fieldOrganizer = "penyelenggara"
	fieldLocation  = "lokasi"
	fieldStatus    = "status"
	fieldDressCode = "pakaian"
	fieldNotes     = "keterangan"
	fieldReferral  = "disposisi_ke"
	fieldLink      = "link_undangan"
)

// referralSeparator splits the comma-joined referral column.
const referralSeparator = ", "

// Normalizer maps loosely-typed remote rows into model.Agenda values.
type Normalizer struct {
	Civil locale.Civil
	// NewID generates an identifier for rows without one.
	NewID func() string
}

// NewNormalizer returns a Normalizer formatting in civil.
func NewNormalizer(civil locale.Civil) *Normalizer {
	return &Normalizer{Civil: civil, NewID: uuid.NewString}
}

// NormalizeAll decodes every row, silently dropping the ones that are not
// JSON objects. Order is preserved.
func (n *Normalizer) NormalizeAll(rows []json.RawMessage) []model.Agenda {
	out := make([]model.Agenda, 0, len(rows))
	dropped := 0
	for _, raw := range rows {
		rec, ok := n.Normalize(raw)
		if !ok {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		appLog.Debug("normalize: dropped malformed rows", "dropped", dropped, "kept", len(out))
	}
	return out
}

// Normalize converts one row. It reports false when raw is not a JSON object.
func (n *Normalizer) Normalize(raw json.RawMessage) (model.Agenda, bool) {
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil || row == nil {
		return model.Agenda{}, false
	}

	id, ok := coerce(row[fieldID])
	if !ok {
		id = n.newID()
	}

	rawTime, ok := coerce(row[fieldTime])
	if !ok {
		rawTime = model.UnknownTime
	}
	rawDate, _ := coerce(row[fieldDate])

	title, ok := coerce(row[fieldTitle])
	if !ok {
		title = model.UntitledTitle
	}

	rec := model.Agenda{
		ID:              id,
		Time:            n.displayTime(rawTime),
		Date:            n.displayDate(rawDate),
		RawDate:         rawDate,
		Day:             n.dayOf(rawDate),
		Title:           title,
		Status:          ClassifyStatus(row[fieldStatus]),
		Organizer:       coerceOrEmpty(row[fieldOrganizer]),
		Location:        coerceOrEmpty(row[fieldLocation]),
		DressCode:       coerceOrEmpty(row[fieldDressCode]),
		Notes:           coerceOrEmpty(row[fieldNotes]),
		ReferralTargets: SplitReferrals(coerceOrEmpty(row[fieldReferral])),
		AttachmentLink:  coerceOrEmpty(row[fieldLink]),
	}
	return rec, true
}

func (n *Normalizer) newID() string {
	if n.NewID != nil {
		return n.NewID()
	}
	return uuid.NewString()
}

// displayTime formats an ISO-8601 timestamp as "HH:MM <suffix>" in the civil
// zone; anything else passes through.
func (n *Normalizer) displayTime(raw string) string {
	if t, ok := parseISO(raw); ok {
		return n.Civil.Clock(t)
	}
	return raw
}

// displayDate formats an ISO-8601 timestamp as a long localized date.
func (n *Normalizer) displayDate(raw string) string {
	if t, ok := parseISO(raw); ok {
		return n.Civil.LongDate(t)
	}
	return raw
}

// dayOf resolves the civil calendar day of a raw date value.
func (n *Normalizer) dayOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, ok := parseISO(raw); ok {
		return t.In(n.Civil.Loc).Format(locale.DateLayout)
	}
	if t, err := time.Parse(locale.DateLayout, raw); err == nil {
		return t.Format(locale.DateLayout)
	}
	if iso, ok := locale.ParseLongDate(raw); ok {
		if t, err := time.Parse(locale.DateLayout, iso); err == nil {
			return t.Format(locale.DateLayout)
		}
	}
	return ""
}

// parseISO accepts RFC 3339 timestamps with or without fractional seconds.
func parseISO(s string) (time.Time, bool) {
	if !strings.Contains(s, "T") {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClassifyStatus returns StatusReferred when the raw value contains the
// referral keyword in any case, StatusPresent otherwise.
func ClassifyStatus(v any) model.Status {
	s, _ := coerce(v)
	if strings.Contains(strings.ToUpper(s), model.ReferralKeyword) {
		return model.StatusReferred
	}
	return model.StatusPresent
}

// SplitReferrals splits the comma-and-space joined column. Empty input yields
// an empty, non-nil list.
func SplitReferrals(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, referralSeparator)
}

// JoinReferrals is the inverse of SplitReferrals.
func JoinReferrals(targets []string) string {
	return strings.Join(targets, referralSeparator)
}

// coerce stringifies a JSON scalar. Missing, null, empty, zero and false
// values report false so callers can apply their default.
func coerce(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case float64:
		if x == 0 {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		if !x {
			return "", false
		}
		return "true", true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func coerceOrEmpty(v any) string {
	s, _ := coerce(v)
	return s
}
