package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService embeds text as a normalised bag of hashed words.
type mockEmbeddingService struct {
	mu       sync.Mutex
	calls    int
	failCall int // 1-based EmbedBatch call that fails; 0 never fails
	embedErr error
}

const mockDims = 64

func embedText(text string) []float32 {
	v := make([]float32, mockDims)
	for _, w := range strings.Fields(strings.ToLower(SanitizeQuery(text))) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%mockDims]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return embedText(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	if m.failCall > 0 && call == m.failCall {
		return nil, errors.New("embedding quota exceeded")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return mockDims }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockVectorStore is a brute-force in-memory vector store.
type mockVectorStore struct {
	mu       sync.Mutex
	chunks   map[string]domain.Chunk
	upserts  int
	queryErr error
	resets   int
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{chunks: make(map[string]domain.Chunk)}
}

func (m *mockVectorStore) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, q []float32, n int, filter domain.RetrievalFilter) ([]driven.VectorHit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []driven.VectorHit
	for _, c := range m.chunks {
		if !domain.Matches(c.Metadata, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{Chunk: c, Similarity: cosine(q, c.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

func (m *mockVectorStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

func (m *mockVectorStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.chunks = make(map[string]domain.Chunk)
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockLexicalEngine ranks documents by how many query terms they contain.
// When gate is set, Build signals started and waits for gate to close.
type mockLexicalEngine struct {
	mu        sync.Mutex
	builds    int
	snapshots []*mockSnapshot
	buildErr  error
	searchErr error

	started chan struct{}
	gate    chan struct{}
}

func (m *mockLexicalEngine) Build(_ context.Context, docs []domain.Document) (driven.LexicalSnapshot, error) {
	if m.gate != nil {
		m.started <- struct{}{}
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	snap := &mockSnapshot{docs: docs, err: m.searchErr}
	m.snapshots = append(m.snapshots, snap)
	return snap, nil
}

func (m *mockLexicalEngine) Snapshots() []*mockSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mockSnapshot(nil), m.snapshots...)
}

func (m *mockLexicalEngine) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

type mockSnapshot struct {
	docs   []domain.Document
	err    error
	closes atomic.Int32
}

func (s *mockSnapshot) Search(_ context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	terms := strings.Fields(strings.ToLower(query))
	var hits []driven.LexicalHit
	for _, d := range s.docs {
		content := strings.ToLower(d.Content)
		score := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, driven.LexicalHit{Document: d, Score: float64(score)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *mockSnapshot) Len() int { return len(s.docs) }

func (s *mockSnapshot) Close() error {
	s.closes.Add(1)
	return nil
}

// mockLLMService answers with respond, recording every call.
type mockLLMService struct {
	mu      sync.Mutex
	calls   [][]driven.ChatMessage
	respond func(messages []driven.ChatMessage) (string, error)
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()
	if m.respond == nil {
		return "ok", nil
	}
	return m.respond(messages)
}

func (m *mockLLMService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPipeline chunks each document whole.
type mockPipeline struct{}

func (mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}
	return []domain.Chunk{{
		ID:         doc.ID + "#0",
		DocumentID: doc.ID,
		Content:    doc.Content,
		Metadata:   doc.Metadata,
	}}, nil
}

// mockRecordSource serves fixed parse results.
type mockRecordSource struct {
	events *domain.ParseResult[domain.EventRecord]
	guests *domain.ParseResult[domain.GuestRecord]
	rows   *domain.ParseResult[domain.Row]
	err    error
}

func (m *mockRecordSource) Events(_ context.Context, path string) (*domain.ParseResult[domain.EventRecord], error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func (m *mockRecordSource) Guests(_ context.Context, _ string) (*domain.ParseResult[domain.GuestRecord], error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.guests, nil
}

func (m *mockRecordSource) Rows(_ context.Context, _ string) (*domain.ParseResult[domain.Row], error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// --- Fixtures ---

func fixtureEvents() []domain.EventRecord {
	return []domain.EventRecord{
		{EventAPIID: "E1", EventName: "Launch Party", GuestCount: "42", City: "Lagos", EventURL: "launch", Line: 2},
		{EventAPIID: "E2", EventName: "Design Meetup", GuestCount: "12", City: "Nairobi", Line: 3},
		{EventAPIID: "E3", EventName: "Hack Night", GuestCount: "n/a", Line: 4},
	}
}

func fixtureGuests() []domain.GuestRecord {
	return []domain.GuestRecord{
		{EventAPIID: "E1", EventName: "Launch Party", GuestAPIID: "G1", GuestName: "Ada Lovelace", Username: "ada", TwitterHandle: "ada_l", BioShort: "Mathematician and writer", Line: 2},
		{EventAPIID: "E1", EventName: "Launch Party", GuestAPIID: "G2", GuestName: "Grace Hopper", BioShort: "Compiler pioneer", Line: 3},
		{EventAPIID: "E2", EventName: "Design Meetup", GuestAPIID: "G3", GuestName: "Dieter Rams", BioShort: "Industrial designer", Line: 4},
		{EventAPIID: "E2", EventName: "Design Meetup", GuestAPIID: "G4", GuestName: "Paula Scher", BioShort: "Graphic designer", Line: 5},
		{EventAPIID: "E3", EventName: "Hack Night", GuestAPIID: "G5", GuestName: "Linus", BioShort: "Kernel hacker", Line: 6},
	}
}

// answerFromContext is an LLM stand-in: it answers guest-count questions
// from the "Total Guests" line of the event named in the question.
func answerFromContext(messages []driven.ChatMessage) (string, error) {
	question := messages[len(messages)-1].Content
	if strings.Contains(question, "Follow up question:") {
		// Condense: return the follow-up as-is.
		idx := strings.LastIndex(question, "Follow up question:")
		return strings.TrimSpace(question[idx+len("Follow up question:"):]), nil
	}

	var context string
	for _, m := range messages {
		if m.Role == driven.RoleSystem && strings.HasPrefix(m.Content, "Context:") {
			context = m.Content
		}
	}
	for _, block := range strings.Split(context, "---") {
		if strings.Contains(block, "Event Name: Launch Party") {
			for _, line := range strings.Split(block, "\n") {
				if strings.HasPrefix(line, "Total Guests:") {
					return "Launch Party has " + strings.TrimSpace(strings.TrimPrefix(line, "Total Guests:")) + ".", nil
				}
			}
		}
	}
	return "Unknown", nil
}
