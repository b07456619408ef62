package domain

import "fmt"

// EventRecord is one row of the events file.
// Values are kept as the raw text read from the file; numeric and boolean
// interpretation happens when the record is composed into a Document.
type EventRecord struct {
	EventAPIID      string `csv:"event_api_id"`
	EventName       string `csv:"event_name"`
	EventURL        string `csv:"event_url"`
	StartAt         string `csv:"start_at"`
	EndAt           string `csv:"end_at"`
	Timezone        string `csv:"timezone"`
	LocationType    string `csv:"location_type"`
	EventType       string `csv:"event_type"`
	Visibility      string `csv:"visibility"`
	GuestCount      string `csv:"guest_count"`
	TicketCount     string `csv:"ticket_count"`
	IsFree          string `csv:"is_free"`
	RequireApproval string `csv:"require_approval"`
	CalendarName    string `csv:"calendar_name"`
	CalendarAPIID   string `csv:"calendar_api_id"`
	City            string `csv:"city"`
	Region          string `csv:"region"`
	Country         string `csv:"country"`
	FullAddress     string `csv:"full_address"`
	Latitude        string `csv:"latitude"`
	Longitude       string `csv:"longitude"`
	CoverURL        string `csv:"cover_url"`
	Hosts           string `csv:"hosts"`
	HostIDs         string `csv:"host_ids"`

	// Source is the resolved path of the file the row came from.
	Source string `csv:"-"`

	// Line is the 1-based source line (decoded row index + 2).
	Line int `csv:"-"`
}

// GuestRecord is one row of the guests file.
// The social handles, real name, username and avatar are personal data and
// must never reach metadata of documents built for the lexical index.
type GuestRecord struct {
	EventAPIID           string `csv:"event_api_id"`
	EventName            string `csv:"event_name"`
	GuestAPIID           string `csv:"guest_api_id"`
	GuestName            string `csv:"guest_name"`
	Username             string `csv:"username"`
	Website              string `csv:"website"`
	Timezone             string `csv:"timezone"`
	BioShort             string `csv:"bio_short"`
	AvatarURL            string `csv:"avatar_url"`
	TwitterHandle        string `csv:"twitter_handle"`
	LinkedInHandle       string `csv:"linkedin_handle"`
	InstagramHandle      string `csv:"instagram_handle"`
	YouTubeHandle        string `csv:"youtube_handle"`
	TikTokHandle         string `csv:"tiktok_handle"`
	LastOnlineAt         string `csv:"last_online_at"`
	NumTicketsRegistered string `csv:"num_tickets_registered"`
	SectionLabel         string `csv:"section_label"`

	Source string `csv:"-"`
	Line   int    `csv:"-"`
}

// Row is a header-keyed row from a generic CSV file.
type Row struct {
	// Columns lists the header names in file order.
	Columns []string

	// Values maps header name to cell text.
	Values map[string]string

	Source string
	Line   int
}

// RowDiagnostic describes a row that could not be decoded.
// Diagnostics are non-fatal; the parser skips the row and continues.
type RowDiagnostic struct {
	// Source is the file the row came from.
	Source string

	// Line is the physical line number in the file.
	Line int

	// Message describes what went wrong.
	Message string
}

// Error implements error so diagnostics can be joined and wrapped.
func (d RowDiagnostic) Error() string {
	return fmt.Sprintf("%s: %s:%d: %s", ErrRowDecode, d.Source, d.Line, d.Message)
}

// Unwrap ties every diagnostic to ErrRowDecode.
func (d RowDiagnostic) Unwrap() error {
	return ErrRowDecode
}

// ParseResult is the outcome of parsing one source file.
type ParseResult[T any] struct {
	// Records are the decoded rows in file order.
	Records []T

	// Diagnostics lists rows that were skipped.
	Diagnostics []RowDiagnostic
}
