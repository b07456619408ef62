package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// Placeholder renders a missing field in composed text.
const Placeholder = "Not provided"

// eventURLBase prefixes event slugs.
const eventURLBase = "https://lu.ma/"

// EventDocumentID returns the document ID for an event.
func EventDocumentID(eventID string) string {
	return "event:" + eventID
}

// GuestDocumentID returns the document ID for a guest of an event.
func GuestDocumentID(eventID, guestID string) string {
	return "guest:" + eventID + ":" + guestID
}

// RowDocumentID returns the document ID for a generic row.
func RowDocumentID(source string, line int) string {
	return "row:" + source + ":" + strconv.Itoa(line)
}

// ComposeEvent builds the event document. The result depends only on rec.
func ComposeEvent(rec domain.EventRecord) domain.Document {
	meta := domain.EventMetadata{
		EventAPIID:      rec.EventAPIID,
		EventName:       rec.EventName,
		EventURL:        rec.EventURL,
		StartAt:         rec.StartAt,
		EndAt:           rec.EndAt,
		Timezone:        rec.Timezone,
		LocationType:    rec.LocationType,
		EventType:       rec.EventType,
		Visibility:      rec.Visibility,
		GuestCount:      domain.ParseCount(rec.GuestCount),
		TicketCount:     domain.ParseCount(rec.TicketCount),
		IsFree:          domain.ParseFlag(rec.IsFree),
		RequireApproval: domain.ParseFlag(rec.RequireApproval),
		CalendarName:    rec.CalendarName,
		CalendarAPIID:   rec.CalendarAPIID,
		City:            rec.City,
		Region:          rec.Region,
		Country:         rec.Country,
		FullAddress:     rec.FullAddress,
		Latitude:        domain.ParseCoordinate(rec.Latitude),
		Longitude:       domain.ParseCoordinate(rec.Longitude),
		CoverURL:        rec.CoverURL,
		Hosts:           rec.Hosts,
		HostIDs:         rec.HostIDs,
		Source:          rec.Source,
		Line:            rec.Line,
	}

	url := Placeholder
	if slug := strings.TrimSpace(rec.EventURL); slug != "" {
		url = eventURLBase + strings.TrimPrefix(slug, "/")
	}

	var b strings.Builder
	line(&b, "Event Name", orPlaceholder(rec.EventName))
	line(&b, "Event ID", orPlaceholder(rec.EventAPIID))
	line(&b, "Location", orPlaceholder(rec.City)+", "+orPlaceholder(rec.Region)+", "+orPlaceholder(rec.Country))
	line(&b, "Address", orPlaceholder(rec.FullAddress))
	line(&b, "Start Date", orPlaceholder(rec.StartAt))
	line(&b, "End Date", orPlaceholder(rec.EndAt))
	line(&b, "Timezone", orPlaceholder(rec.Timezone))
	line(&b, "Event Type", orPlaceholder(rec.LocationType)+" "+orPlaceholder(rec.EventType))
	line(&b, "Total Guests", fmt.Sprintf("%d attendees", meta.GuestCount))
	line(&b, "Total Tickets", strconv.Itoa(meta.TicketCount))
	line(&b, "Free Event", strconv.FormatBool(meta.IsFree))
	line(&b, "Requires Approval", strconv.FormatBool(meta.RequireApproval))
	line(&b, "Calendar", orPlaceholder(rec.CalendarName))
	line(&b, "Calendar ID", orPlaceholder(rec.CalendarAPIID))
	line(&b, "Hosts", orPlaceholder(rec.Hosts))
	line(&b, "Cover Image", orPlaceholder(rec.CoverURL))
	b.WriteString("Event URL: " + url)

	return domain.Document{
		ID:       EventDocumentID(rec.EventAPIID),
		Content:  b.String(),
		Metadata: meta,
	}
}

// guestMetadata converts a guest record into its full metadata.
func guestMetadata(rec domain.GuestRecord) domain.GuestMetadata {
	return domain.GuestMetadata{
		EventAPIID:           rec.EventAPIID,
		EventName:            rec.EventName,
		GuestAPIID:           rec.GuestAPIID,
		GuestName:            rec.GuestName,
		Username:             rec.Username,
		Website:              rec.Website,
		Timezone:             rec.Timezone,
		BioShort:             rec.BioShort,
		AvatarURL:            rec.AvatarURL,
		TwitterHandle:        rec.TwitterHandle,
		LinkedInHandle:       rec.LinkedInHandle,
		InstagramHandle:      rec.InstagramHandle,
		YouTubeHandle:        rec.YouTubeHandle,
		TikTokHandle:         rec.TikTokHandle,
		LastOnlineAt:         rec.LastOnlineAt,
		NumTicketsRegistered: domain.ParseCount(rec.NumTicketsRegistered),
		SectionLabel:         rec.SectionLabel,
		Source:               rec.Source,
		Line:                 rec.Line,
	}
}

// guestText renders the guest semantic text.
func guestText(rec domain.GuestRecord, tickets int) string {
	var b strings.Builder
	line(&b, "Guest Name", orPlaceholder(rec.GuestName))
	line(&b, "Guest ID", orPlaceholder(rec.GuestAPIID))
	line(&b, "Username", orPlaceholder(rec.Username))
	line(&b, "Bio", orPlaceholder(rec.BioShort))
	line(&b, "Website", orPlaceholder(rec.Website))
	line(&b, "Timezone", orPlaceholder(rec.Timezone))
	line(&b, "Attending Event", orPlaceholder(rec.EventName))
	line(&b, "Event ID", orPlaceholder(rec.EventAPIID))
	line(&b, "Number of Tickets", strconv.Itoa(tickets))
	line(&b, "Section", orPlaceholder(rec.SectionLabel))
	b.WriteString("Social Media:\n")
	line(&b, "  - Twitter", handle(rec.TwitterHandle, "@"))
	line(&b, "  - LinkedIn", handle(rec.LinkedInHandle, ""))
	line(&b, "  - Instagram", handle(rec.InstagramHandle, "@"))
	line(&b, "  - YouTube", handle(rec.YouTubeHandle, ""))
	line(&b, "  - TikTok", handle(rec.TikTokHandle, "@"))
	line(&b, "Avatar", orPlaceholder(rec.AvatarURL))
	b.WriteString("Last Online: " + orPlaceholder(rec.LastOnlineAt))
	return b.String()
}

// ComposeGuest builds the guest document for the vector index.
// Its metadata carries personal fields.
func ComposeGuest(rec domain.GuestRecord) domain.Document {
	meta := guestMetadata(rec)
	return domain.Document{
		ID:       GuestDocumentID(rec.EventAPIID, rec.GuestAPIID),
		Content:  guestText(rec, meta.NumTicketsRegistered),
		Metadata: meta,
	}
}

// ComposeGuestLexical builds the guest document for the lexical index.
// The text matches ComposeGuest; the metadata has no personal fields.
func ComposeGuestLexical(rec domain.GuestRecord) domain.Document {
	meta := guestMetadata(rec)
	return domain.Document{
		ID:       GuestDocumentID(rec.EventAPIID, rec.GuestAPIID),
		Content:  guestText(rec, meta.NumTicketsRegistered),
		Metadata: meta.Lexical(),
	}
}

// ComposeRow builds a document from a generic row as "column: value" lines
// in header order.
func ComposeRow(row domain.Row) domain.Document {
	lines := make([]string, 0, len(row.Columns))
	cols := make(map[string]string, len(row.Columns))
	for _, col := range row.Columns {
		v := row.Values[col]
		lines = append(lines, col+": "+v)
		switch col {
		case domain.KeyDocType, domain.KeySource, domain.KeyLine:
		default:
			cols[col] = v
		}
	}
	return domain.Document{
		ID:       RowDocumentID(row.Source, row.Line),
		Content:  strings.Join(lines, "\n"),
		Metadata: domain.RowMetadata{Source: row.Source, Line: row.Line, Columns: cols},
	}
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func handle(h, prefix string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "@")
	if h == "" {
		return Placeholder
	}
	return prefix + h
}
