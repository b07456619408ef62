package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{" 7 ", 7},
		{"42.0", 42},
		{"", 0},
		{"many", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCount(tt.in))
		})
	}
}

func TestParseFlag(t *testing.T) {
	assert.True(t, ParseFlag("true"))
	assert.True(t, ParseFlag(" TRUE "))
	assert.False(t, ParseFlag("false"))
	assert.False(t, ParseFlag("yes"))
	assert.False(t, ParseFlag(""))
}

func TestParseCoordinate(t *testing.T) {
	c := ParseCoordinate("37.7749")
	assert.True(t, c.Valid)
	assert.Equal(t, "37.7749", c.String())

	bad := ParseCoordinate("north-ish")
	assert.False(t, bad.Valid)
	assert.Equal(t, MissingCoordinate, bad.String())
}

func TestDecodeMetadata_RoundTripsEachVariant(t *testing.T) {
	variants := []Metadata{
		EventMetadata{
			EventAPIID: "E1", EventName: "Launch Party", GuestCount: 42,
			IsFree: true, Latitude: ParseCoordinate("1.5"), Longitude: ParseCoordinate(""),
			Source: "events.csv", Line: 2,
		},
		GuestMetadata{
			EventAPIID: "E1", GuestAPIID: "G1", GuestName: "Ada", Username: "ada",
			TwitterHandle: "ada_l", NumTicketsRegistered: 2, Source: "guests.csv", Line: 3,
		},
		GuestLexicalMetadata{EventAPIID: "E1", GuestAPIID: "G1", Source: "guests.csv", Line: 3},
		RowMetadata{Source: "misc.csv", Line: 4, Columns: map[string]string{"name": "x"}},
	}

	for _, m := range variants {
		t.Run(string(m.DocType()), func(t *testing.T) {
			got, err := DecodeMetadata(m.Fields())
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestDecodeMetadata_UnknownType(t *testing.T) {
	_, err := DecodeMetadata(map[string]string{KeyDocType: "note"})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestGuestMetadata_LexicalDropsPersonalFields(t *testing.T) {
	g := GuestMetadata{
		EventAPIID:      "E1",
		GuestAPIID:      "G1",
		GuestName:       "Ada Lovelace",
		Username:        "ada",
		AvatarURL:       "https://img/ada.png",
		TwitterHandle:   "ada_l",
		LinkedInHandle:  "ada-l",
		InstagramHandle: "ada.ig",
		YouTubeHandle:   "adayt",
		TikTokHandle:    "adatt",
		BioShort:        "Mathematician",
	}

	fields := g.Lexical().Fields()
	for _, key := range SensitiveGuestFields {
		_, ok := fields[key]
		assert.False(t, ok, "lexical metadata must not carry %s", key)
	}
	assert.Equal(t, string(DocTypeGuestLexical), fields[KeyDocType])
	assert.Equal(t, "Mathematician", fields["bio_short"])
}

func TestEventMetadata_ValuesAreTyped(t *testing.T) {
	m := EventMetadata{GuestCount: 42, IsFree: true, Latitude: ParseCoordinate("x"), Line: 2}
	v := m.Values()

	assert.Equal(t, 42, v["guest_count"])
	assert.Equal(t, true, v["is_free"])
	assert.Equal(t, MissingCoordinate, v["latitude"])
	assert.Equal(t, 2, v[KeyLine])
}

func TestMatches(t *testing.T) {
	m := EventMetadata{EventAPIID: "E1", City: "Lagos"}

	assert.True(t, Matches(m, nil))
	assert.True(t, Matches(m, RetrievalFilter{KeyEventAPIID: "E1"}))
	assert.True(t, Matches(m, RetrievalFilter{KeyEventAPIID: "E1", "city": "Lagos"}))
	assert.False(t, Matches(m, RetrievalFilter{KeyEventAPIID: "E2"}))
	assert.False(t, Matches(m, RetrievalFilter{"no_such_field": "x"}))
	assert.False(t, Matches(nil, RetrievalFilter{KeyEventAPIID: "E1"}))
}

func TestNewRetrievalFilter(t *testing.T) {
	f, err := NewRetrievalFilter(map[string]any{
		"event_api_id": "E1",
		"is_free":      true,
		"guest_count":  float64(42),
	})
	require.NoError(t, err)
	assert.Equal(t, RetrievalFilter{"event_api_id": "E1", "is_free": "true", "guest_count": "42"}, f)

	_, err = NewRetrievalFilter(map[string]any{"bad": []string{"a"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	empty, err := NewRetrievalFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
