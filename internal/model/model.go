package model

// Status tells whether the official attends an agenda personally or refers it
// to other roles. Values are the labels stored in the remote sheet.
type Status string

const (
	StatusPresent  Status = "HADIR"
	StatusReferred Status = "DI DISPOSISI"
)

// ReferralKeyword marks a raw status string as StatusReferred when it appears
// anywhere in it (case-insensitive).
const ReferralKeyword = "DISPOSISI"

// Placeholders used when remote fields are missing.
const (
	UnknownTime      = "--.--"
	UntitledTitle    = "Untitled"
	NoAgendaTitle    = "No remaining agenda today"
	NoAgendaID       = "0"
	EmptyPlaceholder = "-"
)

// Agenda is the canonical, normalized agenda record.
type Agenda struct {
	ID string `json:"id"`

	// Date and Time are display strings in the civil zone
	// ("Kamis, 19 Februari 2026", "09:00 WITA"), or the raw remote values
	// when those were not ISO-8601.
	Date string `json:"date"`
	Time string `json:"time"`

	// RawDate is the remote value Date was derived from.
	RawDate string `json:"raw_date,omitempty"`
	// Day is the civil calendar day as "2006-01-02", empty when unknown.
	Day string `json:"day,omitempty"`

	Title     string `json:"title"`
	Status    Status `json:"status"`
	Organizer string `json:"organizer"`
	Location  string `json:"location"`
	DressCode string `json:"dress_code"`
	Notes     string `json:"notes"`

	// ReferralTargets is only meaningful under StatusReferred but is kept
	// regardless of status.
	ReferralTargets []string `json:"referral_targets"`

	// AttachmentLink points at an uploaded invitation, if any.
	AttachmentLink string `json:"attachment_link,omitempty"`
}

// HasReferral reports whether target is among the record's referral targets.
func (a Agenda) HasReferral(target string) bool {
	for _, t := range a.ReferralTargets {
		if t == target {
			return true
		}
	}
	return false
}

// Placeholder is the sentinel returned when no agenda is left today.
func Placeholder() Agenda {
	return Agenda{
		ID:              NoAgendaID,
		Time:            UnknownTime,
		Title:           NoAgendaTitle,
		Status:          StatusPresent,
		Organizer:       EmptyPlaceholder,
		Location:        EmptyPlaceholder,
		ReferralTargets: []string{},
	}
}
