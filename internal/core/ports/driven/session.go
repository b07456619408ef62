package driven

import "github.com/custodia-labs/eventrag/internal/core/domain"

// SessionStore keeps conversation sessions in process memory.
// Every method is safe for concurrent use.
type SessionStore interface {
	// Get returns the session for id, or domain.ErrNotFound.
	Get(id string) (*domain.Session, error)

	// GetOrCreate returns the session for id, creating it if absent.
	// Concurrent calls for the same id return the same session.
	GetOrCreate(id string) *domain.Session

	// Clear removes the session for id. Clearing an unknown id is a no-op.
	Clear(id string)

	// IDs returns the IDs of all live sessions.
	IDs() []string

	// Len returns the number of live sessions.
	Len() int
}
