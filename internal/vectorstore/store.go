// Package vectorstore implements the document store façade and its backends.
//
// The façade owns the embed-then-upsert path and the search post-processing
// (metadata filter, keyword refinement, distance gate). Backends only answer
// raw nearest-neighbour queries: pgvector for production, embedded for dev
// and tests.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
)

// keywordOverFetch widens the backend query when keyword refinement will
// discard rows afterwards.
const keywordOverFetch = 3

// Store is the vector store façade the tools and the sync pipeline use.
type Store struct {
	backend  contracts.VectorBackend
	embedder Embedder
	rootName string
	name     string
}

// Embedder is the slice of the Model capability the store needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New creates the façade over a backend. rootName is prepended to result
// paths; name is reported by GetStats.
func New(backend contracts.VectorBackend, embedder Embedder, rootName, name string) *Store {
	return &Store{backend: backend, embedder: embedder, rootName: rootName, name: name}
}

// AddMany embeds and upserts each document. Documents arrive without
// embeddings; ids of successful upserts are logged so a partially failed
// batch can be re-driven by the next sync run.
func (s *Store) AddMany(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	prepared := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", d.ID, err)
		}
		d.Embedding = vec
		prepared = append(prepared, d)
	}

	if err := s.backend.Upsert(ctx, prepared); err != nil {
		return fmt.Errorf("%w: upsert: %v", models.ErrStoreUnavailable, err)
	}
	s.logUpserted(prepared)
	return nil
}

func (s *Store) logUpserted(docs []models.Document) {
	if len(docs) == 0 {
		return
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	log.Debug().Strs("ids", ids).Msg("documents upserted")
}

// Search embeds the query and post-processes backend matches: metadata
// filter, then keyword refinement (count + re-rank), then distance gate,
// then truncation to n.
func (s *Store) Search(ctx context.Context, query string, n int, opts models.SearchOptions) ([]models.SearchResult, error) {
	if n <= 0 {
		n = 10
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Both the metadata filter and the keyword refinement discard rows
	// after the nearest-neighbour fetch, so the fetch must widen or a
	// matching document that is not among the top n vectors is invisible.
	// A metadata filter may match documents arbitrarily far from the
	// query, so it widens to the whole collection; the keyword path
	// over-fetches by a constant factor.
	topK := n
	if len(opts.MetadataFilter) > 0 {
		if count, err := s.backend.Count(ctx); err == nil && count > topK {
			topK = count
		}
	} else if opts.Keyword != "" {
		topK = n * keywordOverFetch
	}

	matches, err := s.backend.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", models.ErrStoreUnavailable, err)
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		if !metadataMatches(m.Doc.Metadata, opts.MetadataFilter) {
			continue
		}
		results = append(results, models.SearchResult{
			ID:         m.Doc.ID,
			Text:       m.Doc.Text,
			Metadata:   m.Doc.Metadata,
			Distance:   m.Distance,
			Path:       models.DocumentPath(s.rootName, m.Doc.Metadata),
			GoogleLink: m.Doc.Metadata.Link(m.Doc.ID),
		})
	}

	if kw := opts.Keyword; kw != "" {
		lower := strings.ToLower(kw)
		kept := results[:0]
		for _, r := range results {
			count := strings.Count(strings.ToLower(r.Text), lower)
			if count == 0 {
				continue
			}
			r.KeywordCount = count
			kept = append(kept, r)
		}
		results = kept
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].KeywordCount != results[j].KeywordCount {
				return results[i].KeywordCount > results[j].KeywordCount
			}
			return results[i].Distance < results[j].Distance
		})
	}

	if opts.MaxDistance != nil {
		kept := results[:0]
		for _, r := range results {
			if r.Distance <= *opts.MaxDistance {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// GetAll returns every stored document. Intended for sync reconciliation,
// not user queries.
func (s *Store) GetAll(ctx context.Context) ([]models.Document, error) {
	docs, err := s.backend.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get all: %v", models.ErrStoreUnavailable, err)
	}
	return docs, nil
}

// DeleteMany removes the given ids. Missing ids are not an error.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.backend.Delete(ctx, ids); err != nil {
		return fmt.Errorf("%w: delete: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// GetStats reports the collection size and name.
func (s *Store) GetStats(ctx context.Context) (*models.StoreStats, error) {
	count, err := s.backend.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", models.ErrStoreUnavailable, err)
	}
	return &models.StoreStats{Count: count, Name: s.name}, nil
}

// Reset empties the collection.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.Reset(ctx); err != nil {
		return fmt.Errorf("%w: reset: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func metadataMatches(md models.DocumentMetadata, filter map[string]string) bool {
	for k, v := range filter {
		switch k {
		case "name":
			if md.Name != v {
				return false
			}
		case "mimeType":
			if md.MimeType != v {
				return false
			}
		case "folderPath":
			if md.FolderPath != v {
				return false
			}
		case "extension":
			if md.Extension != v {
				return false
			}
		case "modifiedTime":
			if md.ModifiedTime != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}
