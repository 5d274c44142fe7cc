package agenda

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/model"
	"simacca/internal/remote"
)

// MaxAttachmentBytes caps uploaded invitation files.
const MaxAttachmentBytes = 5 << 20

var (
	ErrIncomplete         = errors.New("agenda: title, date and time are required")
	ErrInvalidInput       = errors.New("agenda: invalid form input")
	ErrAttachmentTooLarge = errors.New("agenda: attachment exceeds 5 MB")
	ErrFormNotOpen        = errors.New("agenda: form is not open")
)

// FormState is the create/edit dialog lifecycle.
type FormState int

const (
	FormClosed FormState = iota
	FormOpenNew
	FormOpenEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormClosed:
		return "closed"
	case FormOpenNew:
		return "open_new"
	case FormOpenEditing:
		return "open_editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// FormInput holds the editable values. Date is "2006-01-02", Time is "15:04".
type FormInput struct {
	Title           string       `json:"title" validate:"required"`
	Date            string       `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string       `json:"time" validate:"required,datetime=15:04"`
	Status          model.Status `json:"status"`
	Organizer       string       `json:"organizer"`
	Location        string       `json:"location"`
	DressCode       string       `json:"dress_code"`
	Notes           string       `json:"notes"`
	ReferralTargets []string     `json:"referral_targets"`
}

// Attachment is an uploaded file encoded as a data URL.
type Attachment struct {
	Name string
	Data string
}

// Refresher re-syncs the cache after a write. *Store implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

var validate = validator.New()

// Form is the per-interaction create/edit controller:
// closed -> open (new | editing) -> submitting -> closed.
type Form struct {
	writer    remote.Writer
	refresher Refresher
	settle    time.Duration

	// Targets limits referral targets to a known list when non-empty.
	Targets []string
	// Now stamps client-generated identifiers.
	Now func() time.Time

	state      FormState
	editing    *model.Agenda
	input      FormInput
	attachment *Attachment
}

// NewForm creates a closed form that writes through w and refreshes r after
// waiting settle.
func NewForm(w remote.Writer, r Refresher, settle time.Duration) *Form {
	return &Form{
		writer:    w,
		refresher: r,
		settle:    settle,
		Now:       time.Now,
	}
}

func (f *Form) State() FormState { return f.state }

// Input returns the current editable values.
func (f *Form) Input() FormInput { return f.input }

// Editing returns the record being edited, if any.
func (f *Form) Editing() (model.Agenda, bool) {
	if f.editing == nil {
		return model.Agenda{}, false
	}
	return *f.editing, true
}

// OpenNew resets every field for a new record.
func (f *Form) OpenNew() {
	f.state = FormOpenNew
	f.editing = nil
	f.attachment = nil
	f.input = FormInput{Status: model.StatusPresent, ReferralTargets: []string{}}
}

// OpenEdit pre-fills the form from rec. Date and time are parsed back from
// their display strings; values that do not parse are left blank.
func (f *Form) OpenEdit(rec model.Agenda) {
	cp := rec
	f.state = FormOpenEditing
	f.editing = &cp
	f.attachment = nil
	f.input = FormInput{
		Title:           rec.Title,
		Date:            PrefillDate(rec.Date),
		Time:            PrefillTime(rec.Time),
		Status:          rec.Status,
		Organizer:       rec.Organizer,
		Location:        rec.Location,
		DressCode:       rec.DressCode,
		Notes:           rec.Notes,
		ReferralTargets: slices.Clone(rec.ReferralTargets),
	}
	if f.input.ReferralTargets == nil {
		f.input.ReferralTargets = []string{}
	}
}

// Close discards the form.
func (f *Form) Close() {
	f.state = FormClosed
	f.editing = nil
	f.attachment = nil
	f.input = FormInput{}
}

// SetInput replaces the editable values.
func (f *Form) SetInput(in FormInput) error {
	if !f.open() {
		return ErrFormNotOpen
	}
	if in.ReferralTargets == nil {
		in.ReferralTargets = []string{}
	}
	f.input = in
	return nil
}

// Attach encodes data as a data URL. Files over MaxAttachmentBytes are
// rejected and any previous attachment is kept.
func (f *Form) Attach(name string, data []byte) error {
	if !f.open() {
		return ErrFormNotOpen
	}
	if len(data) > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	f.attachment = &Attachment{
		Name: name,
		Data: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	return nil
}

// Validate checks the mandatory fields locally; nothing is sent on failure.
func (f *Form) Validate() error {
	if err := validate.Struct(f.input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		var missing, invalid []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			} else {
				invalid = append(invalid, fe.Field())
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(invalid, ", "))
	}
	switch f.input.Status {
	case "", model.StatusPresent, model.StatusReferred:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidInput, f.input.Status)
	}
	if len(f.Targets) > 0 {
		for _, t := range f.input.ReferralTargets {
			if !slices.Contains(f.Targets, t) {
				return fmt.Errorf("%w: referral target %q", ErrInvalidInput, t)
			}
		}
	}
	return nil
}

// Payload builds the write body for the current state.
func (f *Form) Payload() remote.Payload {
	p := remote.Payload{
		Action:          remote.ActionCreate,
		ID:              fmt.Sprintf("AGD-%d", f.Now().UnixMilli()),
		Date:            f.input.Date,
		Time:            f.input.Time,
		Title:           f.input.Title,
		Organizer:       f.input.Organizer,
		Location:        f.input.Location,
		Status:          string(f.input.Status),
		DressCode:       f.input.DressCode,
		Notes:           f.input.Notes,
		ReferralTargets: JoinReferrals(f.input.ReferralTargets),
	}
	if p.Status == "" {
		p.Status = string(model.StatusPresent)
	}
	if f.editing != nil {
		p.Action = remote.ActionUpdate
		if f.editing.ID != "" {
			p.ID = f.editing.ID
		}
		p.AttachmentLink = f.editing.AttachmentLink
	}
	if f.attachment != nil {
		p.FileData = f.attachment.Data
		p.FileName = f.attachment.Name
	}
	return p
}

// Send validates and writes. On success the form stays in FormSubmitting
// until Settle; on failure it returns to its open state.
func (f *Form) Send(ctx context.Context) (remote.WriteResult, error) {
	if !f.open() {
		return "", ErrFormNotOpen
	}
	if err := f.Validate(); err != nil {
		return "", err
	}

	prev := f.state
	f.state = FormSubmitting
	p := f.Payload()

	res, err := f.writer.Write(ctx, p)
	if err != nil {
		f.state = prev
		appLog.Error("agenda write failed", err, "action", p.Action, "id", p.ID)
		return "", err
	}
	return res, nil
}

// Settle waits for the remote side to apply the write, refreshes the store
// and closes the form. A refresh failure is logged; the cache stays as it was.
func (f *Form) Settle(ctx context.Context) {
	if f.settle > 0 {
		t := time.NewTimer(f.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			f.Close()
			return
		case <-t.C:
		}
	}
	if f.refresher != nil {
		_ = f.refresher.Refresh(ctx)
	}
	f.Close()
}

// Submit is Send followed by Settle.
func (f *Form) Submit(ctx context.Context) (remote.WriteResult, error) {
	res, err := f.Send(ctx)
	if err != nil {
		return "", err
	}
	f.Settle(ctx)
	return res, nil
}

func (f *Form) open() bool {
	return f.state == FormOpenNew || f.state == FormOpenEditing
}

var clockPattern = regexp.MustCompile(`(\d{2}[:.]\d{2})`)

// PrefillTime extracts "HH:MM" from a display time such as "09.00 WITA".
func PrefillTime(display string) string {
	m := clockPattern.FindStringSubmatch(display)
	if m == nil {
		return ""
	}
	return strings.Replace(m[1], ".", ":", 1)
}

// PrefillDate turns a display date back into "2006-01-02". Values containing
// a dash pass through; otherwise only the long Indonesian layout is understood.
func PrefillDate(display string) string {
	if display == "" {
		return ""
	}
	if strings.Contains(display, "-") {
		return display
	}
	iso, ok := locale.ParseLongDate(display)
	if !ok {
		return ""
	}
	return iso
}
