package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/driveagent/driveagent/pkg/models"
)

// EmbeddedBackend is a lightweight in-memory backend using brute-force
// cosine distance. Suitable for development and tests; production deployments
// use pgvector.
type EmbeddedBackend struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

// NewEmbeddedBackend creates an empty in-memory backend.
func NewEmbeddedBackend() *EmbeddedBackend {
	return &EmbeddedBackend{docs: make(map[string]models.Document)}
}

func (b *EmbeddedBackend) Upsert(_ context.Context, docs []models.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range docs {
		b.docs[d.ID] = d
	}
	return nil
}

func (b *EmbeddedBackend) Query(_ context.Context, vector []float32, topK int) ([]models.Match, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matches []models.Match
	for _, d := range b.docs {
		if len(d.Embedding) != len(vector) {
			continue
		}
		matches = append(matches, models.Match{
			Doc:      d,
			Distance: 1 - cosineSimilarity(vector, d.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (b *EmbeddedBackend) All(_ context.Context) ([]models.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	docs := make([]models.Document, 0, len(b.docs))
	for _, d := range b.docs {
		d.Embedding = nil
		docs = append(docs, d)
	}
	return docs, nil
}

func (b *EmbeddedBackend) Delete(_ context.Context, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.docs, id)
	}
	return nil
}

func (b *EmbeddedBackend) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs), nil
}

func (b *EmbeddedBackend) Reset(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = make(map[string]models.Document)
	return nil
}

func (b *EmbeddedBackend) HealthCheck(_ context.Context) error {
	return nil // in-memory, always healthy
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
