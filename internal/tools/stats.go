package tools

import (
	"context"

	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/models"
)

// documentStatsTool reports the corpus size.
func documentStatsTool(store *vectorstore.Store) Tool {
	return Tool{
		Spec: models.ToolSpec{
			Name:        "getDocumentStats",
			Description: "Get statistics about the document corpus: how many documents are indexed and the collection name.",
			Parameters: models.ObjectSchema{
				Properties: map[string]models.Property{},
			},
		},
		Invoke: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
			stats, err := store.GetStats(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"count":   stats.Count,
				"name":    stats.Name,
			}, nil
		},
	}
}
