package tools

import (
	"context"
	"fmt"

	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/models"
)

const defaultSearchResults = 10

// searchDocumentsTool performs a semantic search over the corpus with an
// optional lexical keyword refinement and a deployment-configured distance
// gate.
func searchDocumentsTool(store *vectorstore.Store, distanceCutoff float64) Tool {
	return Tool{
		Spec: models.ToolSpec{
			Name:        "searchDocuments",
			Description: "Search the document corpus semantically. Use keyword to additionally require a literal word or phrase in the document text.",
			Parameters: models.ObjectSchema{
				Properties: map[string]models.Property{
					"query":    {Type: "string", Description: "Natural-language search query"},
					"keyword":  {Type: "string", Description: "Optional literal keyword the document text must contain"},
					"nResults": {Type: "integer", Description: "Maximum number of results (default 10)"},
				},
				Required: []string{"query"},
			},
		},
		Invoke: func(ctx context.Context, params map[string]any) (map[string]any, error) {
			query, err := requiredString(params, "query")
			if err != nil {
				return nil, err
			}

			opts := models.SearchOptions{Keyword: optionalString(params, "keyword")}
			if distanceCutoff > 0 {
				cutoff := distanceCutoff
				opts.MaxDistance = &cutoff
			}

			n := optionalInt(params, "nResults", defaultSearchResults)
			results, err := store.Search(ctx, query, n, opts)
			if err != nil {
				return nil, err
			}

			rows := make([]map[string]any, 0, len(results))
			for _, r := range results {
				rows = append(rows, map[string]any{
					"googleLink": r.GoogleLink,
					"fileName":   r.FileName(),
					"folderPath": r.Metadata.FolderPath,
					"path":       r.Path,
					"distance":   fmt.Sprintf("%.4f", r.Distance),
				})
			}

			return map[string]any{
				"success": true,
				"count":   len(rows),
				"results": rows,
			}, nil
		},
	}
}
