package domain

import (
	"fmt"
	"strconv"
)

// RetrievalFilter maps metadata field names to exact-match values.
// It narrows vector and lexical retrieval identically.
type RetrievalFilter map[string]string

// NewRetrievalFilter converts a loosely typed filter (as decoded from JSON)
// into a RetrievalFilter. Numbers and booleans use their canonical text form.
func NewRetrievalFilter(raw map[string]any) (RetrievalFilter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(RetrievalFilter, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("%w: filter %q has unsupported value %v", ErrInvalidInput, k, v)
		}
	}
	return out, nil
}

// PassageOrigin identifies which retrieval path produced a passage.
type PassageOrigin string

// Retrieval paths.
const (
	OriginLexical PassageOrigin = "lexical"
	OriginVector  PassageOrigin = "vector"
)

// Passage is a retrieved unit of context.
type Passage struct {
	// ID is the chunk or document identifier.
	ID string

	// Content is the passage text.
	Content string

	// Metadata is the typed metadata of the passage's document.
	Metadata Metadata

	// Origin is the retrieval path that found the passage.
	Origin PassageOrigin

	// Score is the path-specific relevance score.
	Score float64
}

// QueryRequest is the input of a conversational query.
type QueryRequest struct {
	// ConversationID selects the session. Empty starts a new one.
	ConversationID string

	// Question is the user's question. Required.
	Question string

	// Filter optionally narrows retrieval.
	Filter RetrievalFilter
}

// SourceDocument is a passage as returned to callers.
type SourceDocument struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// QueryResult is the output of a conversational query.
type QueryResult struct {
	Answer         string           `json:"answer"`
	Sources        []SourceDocument `json:"sources"`
	ConversationID string           `json:"conversationId"`
}

// Answer is the outcome of one grounded generation.
type Answer struct {
	// Text is the generated answer.
	Text string

	// StandaloneQuery is the rewritten query used for retrieval.
	StandaloneQuery string

	// Passages are the retrieved passages given to the model.
	Passages []Passage
}

// Sources converts the answer's passages into output form.
func (a *Answer) Sources() []SourceDocument {
	out := make([]SourceDocument, len(a.Passages))
	for i, p := range a.Passages {
		var meta map[string]any
		if p.Metadata != nil {
			meta = p.Metadata.Values()
		} else {
			meta = map[string]any{}
		}
		out[i] = SourceDocument{Content: p.Content, Metadata: meta}
	}
	return out
}
