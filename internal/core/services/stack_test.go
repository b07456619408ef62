package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// testStack wires the ingest and chat services over in-memory fakes.
type testStack struct {
	embedder *mockEmbeddingService
	vectors  *mockVectorStore
	engine   *mockLexicalEngine
	llm      *mockLLMService
	records  *memory.RecordStore
	sessions *memory.SessionStore
	source   *mockRecordSource
	lexical  *LexicalIndex
	ingest   *IngestService
	chat     *ChatService
}

func newTestStack(t *testing.T, batchSize int) *testStack {
	t.Helper()

	s := &testStack{
		embedder: &mockEmbeddingService{},
		vectors:  newMockVectorStore(),
		engine:   &mockLexicalEngine{},
		llm:      &mockLLMService{respond: answerFromContext},
		records:  memory.NewRecordStore(),
		sessions: memory.NewSessionStore(),
		source: &mockRecordSource{
			events: &domain.ParseResult[domain.EventRecord]{Records: fixtureEvents()},
			guests: &domain.ParseResult[domain.GuestRecord]{Records: fixtureGuests()},
			rows:   &domain.ParseResult[domain.Row]{},
		},
	}

	s.lexical = NewLexicalIndex(s.engine, s.records, 0)
	writer := NewVectorWriter(s.embedder, s.vectors, batchSize)
	s.ingest = NewIngestService(s.source, s.records, mockPipeline{}, writer, s.vectors, s.lexical, t.TempDir())

	retriever := NewHybridRetriever(s.embedder, s.vectors, s.lexical, domain.RetrievalSettings{})
	engine := NewQueryEngine(NewRewriter(s.llm, 0), retriever, NewGenerator(s.llm, 0))
	s.chat = NewChatService(engine, s.sessions, s.vectors, s.lexical)
	s.chat.SetModels(s.embedder, s.llm, domain.DefaultCollection)
	return s
}

// ingestFixtures runs dual ingestion over the fixture records.
func (s *testStack) ingestFixtures(t *testing.T) *domain.IngestResult {
	t.Helper()
	result, err := s.ingest.IngestDual(context.Background(), domain.IngestRequest{
		EventsPath: "events.csv",
		GuestsPath: "guests.csv",
	})
	require.NoError(t, err)
	return result
}
