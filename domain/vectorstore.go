package domain

import "context"

// Payload is the metadata stored next to a vector in the vector store.
type Payload map[string]any

// VectorStore defines the interface for interacting with a vector database.
// Every operation targets the single collection the store was built for.
type VectorStore interface {
	// Search returns the payloads of the records nearest to vector, best first, at most topK of them.
	Search(ctx context.Context, vector Embedding, topK int) ([]Payload, error)
	// Upsert inserts the record, or overwrites the record that already has this id.
	Upsert(ctx context.Context, id SongID, vector Embedding, payload Payload) error
	// Delete removes the record with the given id. Unknown ids are not an error.
	Delete(ctx context.Context, id SongID) error
	// Scroll returns the payloads of the first page of records, at most limit of them.
	Scroll(ctx context.Context, limit int) ([]Payload, error)
}
