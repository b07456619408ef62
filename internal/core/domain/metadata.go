package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known metadata keys.
const (
	KeyDocType    = "doc_type"
	KeyEventAPIID = "event_api_id"
	KeySource     = "source"
	KeyLine       = "line"
)

// MissingCoordinate is the metadata value for a latitude or longitude that failed to parse.
const MissingCoordinate = "missing"

// SensitiveGuestFields lists guest metadata keys that identify a person.
// They never appear in GuestLexicalMetadata.
var SensitiveGuestFields = []string{
	"guest_name",
	"username",
	"avatar_url",
	"twitter_handle",
	"linkedin_handle",
	"instagram_handle",
	"youtube_handle",
	"tiktok_handle",
}

// Metadata is the typed metadata attached to a Document.
// Each variant is keyed by its DocType.
type Metadata interface {
	// DocType returns the variant discriminator.
	DocType() DocType

	// EventID returns the owning event identifier, or "" if none.
	EventID() string

	// Fields renders the metadata as a flat string map for storage and filtering.
	Fields() map[string]string

	// Values renders the metadata with typed values (ints, bools, floats) for output.
	Values() map[string]any
}

// Coordinate is a latitude or longitude that may have failed to parse.
type Coordinate struct {
	Value float64
	Valid bool
}

// ParseCoordinate parses s, returning an invalid Coordinate on failure.
func ParseCoordinate(s string) Coordinate {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Coordinate{}
	}
	return Coordinate{Value: v, Valid: true}
}

// String returns the decimal form, or MissingCoordinate.
func (c Coordinate) String() string {
	if !c.Valid {
		return MissingCoordinate
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

func (c Coordinate) any() any {
	if !c.Valid {
		return MissingCoordinate
	}
	return c.Value
}

// ParseCount parses a count field, falling back to 0.
// Decimal text is truncated ("42.0" is 42).
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// ParseFlag reports whether s is the text "true", ignoring case and surrounding space.
func ParseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// EventMetadata is the metadata of a DocTypeEvent document.
type EventMetadata struct {
	EventAPIID      string
	EventName       string
	EventURL        string
	StartAt         string
	EndAt           string
	Timezone        string
	LocationType    string
	EventType       string
	Visibility      string
	GuestCount      int
	TicketCount     int
	IsFree          bool
	RequireApproval bool
	CalendarName    string
	CalendarAPIID   string
	City            string
	Region          string
	Country         string
	FullAddress     string
	Latitude        Coordinate
	Longitude       Coordinate
	CoverURL        string
	Hosts           string
	HostIDs         string
	Source          string
	Line            int
}

// DocType returns DocTypeEvent.
func (m EventMetadata) DocType() DocType { return DocTypeEvent }

// EventID returns the event identifier.
func (m EventMetadata) EventID() string { return m.EventAPIID }

// Fields renders the metadata as strings.
func (m EventMetadata) Fields() map[string]string {
	return map[string]string{
		KeyDocType:         string(DocTypeEvent),
		KeyEventAPIID:      m.EventAPIID,
		"event_name":       m.EventName,
		"event_url":        m.EventURL,
		"start_at":         m.StartAt,
		"end_at":           m.EndAt,
		"timezone":         m.Timezone,
		"location_type":    m.LocationType,
		"event_type":       m.EventType,
		"visibility":       m.Visibility,
		"guest_count":      strconv.Itoa(m.GuestCount),
		"ticket_count":     strconv.Itoa(m.TicketCount),
		"is_free":          strconv.FormatBool(m.IsFree),
		"require_approval": strconv.FormatBool(m.RequireApproval),
		"calendar_name":    m.CalendarName,
		"calendar_api_id":  m.CalendarAPIID,
		"city":             m.City,
		"region":           m.Region,
		"country":          m.Country,
		"full_address":     m.FullAddress,
		"latitude":         m.Latitude.String(),
		"longitude":        m.Longitude.String(),
		"cover_url":        m.CoverURL,
		"hosts":            m.Hosts,
		"host_ids":         m.HostIDs,
		KeySource:          m.Source,
		KeyLine:            strconv.Itoa(m.Line),
	}
}

// Values renders the metadata with typed counts, flags and coordinates.
func (m EventMetadata) Values() map[string]any {
	out := stringsToAny(m.Fields())
	out["guest_count"] = m.GuestCount
	out["ticket_count"] = m.TicketCount
	out["is_free"] = m.IsFree
	out["require_approval"] = m.RequireApproval
	out["latitude"] = m.Latitude.any()
	out["longitude"] = m.Longitude.any()
	out[KeyLine] = m.Line
	return out
}

// GuestMetadata is the metadata of a DocTypeGuest document.
// It carries personal fields and is only stored in the vector index.
type GuestMetadata struct {
	EventAPIID           string
	EventName            string
	GuestAPIID           string
	GuestName            string
	Username             string
	Website              string
	Timezone             string
	BioShort             string
	AvatarURL            string
	TwitterHandle        string
	LinkedInHandle       string
	InstagramHandle      string
	YouTubeHandle        string
	TikTokHandle         string
	LastOnlineAt         string
	NumTicketsRegistered int
	SectionLabel         string
	Source               string
	Line                 int
}

// DocType returns DocTypeGuest.
func (m GuestMetadata) DocType() DocType { return DocTypeGuest }

// EventID returns the event the guest attends.
func (m GuestMetadata) EventID() string { return m.EventAPIID }

// Fields renders the metadata as strings.
func (m GuestMetadata) Fields() map[string]string {
	return map[string]string{
		KeyDocType:               string(DocTypeGuest),
		KeyEventAPIID:            m.EventAPIID,
		"event_name":             m.EventName,
		"guest_api_id":           m.GuestAPIID,
		"guest_name":             m.GuestName,
		"username":               m.Username,
		"website":                m.Website,
		"timezone":               m.Timezone,
		"bio_short":              m.BioShort,
		"avatar_url":             m.AvatarURL,
		"twitter_handle":         m.TwitterHandle,
		"linkedin_handle":        m.LinkedInHandle,
		"instagram_handle":       m.InstagramHandle,
		"youtube_handle":         m.YouTubeHandle,
		"tiktok_handle":          m.TikTokHandle,
		"last_online_at":         m.LastOnlineAt,
		"num_tickets_registered": strconv.Itoa(m.NumTicketsRegistered),
		"section_label":          m.SectionLabel,
		KeySource:                m.Source,
		KeyLine:                  strconv.Itoa(m.Line),
	}
}

// Values renders the metadata with typed counts.
func (m GuestMetadata) Values() map[string]any {
	out := stringsToAny(m.Fields())
	out["num_tickets_registered"] = m.NumTicketsRegistered
	out[KeyLine] = m.Line
	return out
}

// Lexical projects the guest metadata onto its PII-free lexical variant.
func (m GuestMetadata) Lexical() GuestLexicalMetadata {
	return GuestLexicalMetadata{
		EventAPIID:           m.EventAPIID,
		EventName:            m.EventName,
		GuestAPIID:           m.GuestAPIID,
		Website:              m.Website,
		Timezone:             m.Timezone,
		BioShort:             m.BioShort,
		LastOnlineAt:         m.LastOnlineAt,
		NumTicketsRegistered: m.NumTicketsRegistered,
		SectionLabel:         m.SectionLabel,
		Source:               m.Source,
		Line:                 m.Line,
	}
}

// GuestLexicalMetadata is the metadata of a DocTypeGuestLexical document.
// The type has no fields for names, usernames, avatars or social handles.
type GuestLexicalMetadata struct {
	EventAPIID           string
	EventName            string
	GuestAPIID           string
	Website              string
	Timezone             string
	BioShort             string
	LastOnlineAt         string
	NumTicketsRegistered int
	SectionLabel         string
	Source               string
	Line                 int
}

// DocType returns DocTypeGuestLexical.
func (m GuestLexicalMetadata) DocType() DocType { return DocTypeGuestLexical }

// EventID returns the event the guest attends.
func (m GuestLexicalMetadata) EventID() string { return m.EventAPIID }

// Fields renders the metadata as strings.
func (m GuestLexicalMetadata) Fields() map[string]string {
	return map[string]string{
		KeyDocType:               string(DocTypeGuestLexical),
		KeyEventAPIID:            m.EventAPIID,
		"event_name":             m.EventName,
		"guest_api_id":           m.GuestAPIID,
		"website":                m.Website,
		"timezone":               m.Timezone,
		"bio_short":              m.BioShort,
		"last_online_at":         m.LastOnlineAt,
		"num_tickets_registered": strconv.Itoa(m.NumTicketsRegistered),
		"section_label":          m.SectionLabel,
		KeySource:                m.Source,
		KeyLine:                  strconv.Itoa(m.Line),
	}
}

// Values renders the metadata with typed counts.
func (m GuestLexicalMetadata) Values() map[string]any {
	out := stringsToAny(m.Fields())
	out["num_tickets_registered"] = m.NumTicketsRegistered
	out[KeyLine] = m.Line
	return out
}

// RowMetadata is the metadata of a DocTypeRow document.
type RowMetadata struct {
	Source string
	Line   int

	// Columns holds the row's cells by header name.
	Columns map[string]string
}

// DocType returns DocTypeRow.
func (m RowMetadata) DocType() DocType { return DocTypeRow }

// EventID returns the row's event_api_id column, if any.
func (m RowMetadata) EventID() string { return m.Columns[KeyEventAPIID] }

// Fields renders the row cells plus source and line.
// Cells named like a reserved key are dropped.
func (m RowMetadata) Fields() map[string]string {
	out := make(map[string]string, len(m.Columns)+3)
	for k, v := range m.Columns {
		out[k] = v
	}
	out[KeyDocType] = string(DocTypeRow)
	out[KeySource] = m.Source
	out[KeyLine] = strconv.Itoa(m.Line)
	return out
}

// Values renders the metadata with a numeric line.
func (m RowMetadata) Values() map[string]any {
	out := stringsToAny(m.Fields())
	out[KeyLine] = m.Line
	return out
}

// DecodeMetadata rebuilds typed metadata from its flat string form.
// It is the inverse of Metadata.Fields.
func DecodeMetadata(fields map[string]string) (Metadata, error) {
	line := ParseCount(fields[KeyLine])

	switch DocType(fields[KeyDocType]) {
	case DocTypeEvent:
		return EventMetadata{
			EventAPIID:      fields[KeyEventAPIID],
			EventName:       fields["event_name"],
			EventURL:        fields["event_url"],
			StartAt:         fields["start_at"],
			EndAt:           fields["end_at"],
			Timezone:        fields["timezone"],
			LocationType:    fields["location_type"],
			EventType:       fields["event_type"],
			Visibility:      fields["visibility"],
			GuestCount:      ParseCount(fields["guest_count"]),
			TicketCount:     ParseCount(fields["ticket_count"]),
			IsFree:          ParseFlag(fields["is_free"]),
			RequireApproval: ParseFlag(fields["require_approval"]),
			CalendarName:    fields["calendar_name"],
			CalendarAPIID:   fields["calendar_api_id"],
			City:            fields["city"],
			Region:          fields["region"],
			Country:         fields["country"],
			FullAddress:     fields["full_address"],
			Latitude:        ParseCoordinate(fields["latitude"]),
			Longitude:       ParseCoordinate(fields["longitude"]),
			CoverURL:        fields["cover_url"],
			Hosts:           fields["hosts"],
			HostIDs:         fields["host_ids"],
			Source:          fields[KeySource],
			Line:            line,
		}, nil

	case DocTypeGuest:
		return GuestMetadata{
			EventAPIID:           fields[KeyEventAPIID],
			EventName:            fields["event_name"],
			GuestAPIID:           fields["guest_api_id"],
			GuestName:            fields["guest_name"],
			Username:             fields["username"],
			Website:              fields["website"],
			Timezone:             fields["timezone"],
			BioShort:             fields["bio_short"],
			AvatarURL:            fields["avatar_url"],
			TwitterHandle:        fields["twitter_handle"],
			LinkedInHandle:       fields["linkedin_handle"],
			InstagramHandle:      fields["instagram_handle"],
			YouTubeHandle:        fields["youtube_handle"],
			TikTokHandle:         fields["tiktok_handle"],
			LastOnlineAt:         fields["last_online_at"],
			NumTicketsRegistered: ParseCount(fields["num_tickets_registered"]),
			SectionLabel:         fields["section_label"],
			Source:               fields[KeySource],
			Line:                 line,
		}, nil

	case DocTypeGuestLexical:
		return GuestLexicalMetadata{
			EventAPIID:           fields[KeyEventAPIID],
			EventName:            fields["event_name"],
			GuestAPIID:           fields["guest_api_id"],
			Website:              fields["website"],
			Timezone:             fields["timezone"],
			BioShort:             fields["bio_short"],
			LastOnlineAt:         fields["last_online_at"],
			NumTicketsRegistered: ParseCount(fields["num_tickets_registered"]),
			SectionLabel:         fields["section_label"],
			Source:               fields[KeySource],
			Line:                 line,
		}, nil

	case DocTypeRow:
		cols := make(map[string]string, len(fields))
		for k, v := range fields {
			switch k {
			case KeyDocType, KeySource, KeyLine:
				continue
			}
			cols[k] = v
		}
		return RowMetadata{Source: fields[KeySource], Line: line, Columns: cols}, nil

	default:
		return nil, fmt.Errorf("%w: doc_type %q", ErrUnsupportedType, fields[KeyDocType])
	}
}

// Matches reports whether every filter entry equals the metadata field exactly.
// A nil or empty filter matches everything.
func Matches(m Metadata, filter RetrievalFilter) bool {
	if len(filter) == 0 {
		return true
	}
	if m == nil {
		return false
	}
	fields := m.Fields()
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func stringsToAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
