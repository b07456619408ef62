package domain

// DocType discriminates the metadata variant carried by a Document.
type DocType string

// Available document types.
const (
	// DocTypeEvent is a composed event record.
	DocTypeEvent DocType = "event"

	// DocTypeGuest is a composed guest record for the vector index.
	DocTypeGuest DocType = "guest"

	// DocTypeGuestLexical is a guest record projected for the lexical index.
	// Its metadata carries no personal fields.
	DocTypeGuestLexical DocType = "guest_lexical"

	// DocTypeRow is a row from a generic CSV file.
	DocTypeRow DocType = "row"
)

// IsValid returns true if the document type is recognised.
func (t DocType) IsValid() bool {
	switch t {
	case DocTypeEvent, DocTypeGuest, DocTypeGuestLexical, DocTypeRow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocType) String() string {
	return string(t)
}

// Document is a composed, human-readable unit produced from exactly one record.
type Document struct {
	// ID is deterministic for a given record, so re-ingestion overwrites.
	ID string

	// Content is prose text for embedding and grounding.
	Content string

	// Metadata is the typed metadata variant for DocType.
	Metadata Metadata
}

// DocType returns the discriminator of the document's metadata.
func (d Document) DocType() DocType {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata.DocType()
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata is copied unchanged from the parent document.
	Metadata Metadata
}
