package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

const defaultSummaryWords = 200

// commonExtensions are stripped from a document name before the fallback
// keyword search.
var commonExtensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".pptx", ".ppt", ".txt", ".md", ".csv"}

// summarizeDocumentTool locates a document by name and produces a bounded
// summary through a separate plain model call.
func summarizeDocumentTool(store *vectorstore.Store, model contracts.Model) Tool {
	return Tool{
		Spec: models.ToolSpec{
			Name:        "summarizeDocument",
			Description: "Summarize a document from the corpus by its name. Use when the user asks for a summary, overview or gist of a specific document.",
			Parameters: models.ObjectSchema{
				Properties: map[string]models.Property{
					"documentName": {Type: "string", Description: "Name of the document to summarize"},
					"maxLength":    {Type: "integer", Description: "Maximum summary length in words (default 200)"},
					"query":        {Type: "string", Description: "What the user wants summarized"},
				},
				Required: []string{"documentName", "query"},
			},
		},
		Invoke: func(ctx context.Context, params map[string]any) (map[string]any, error) {
			name, err := requiredString(params, "documentName")
			if err != nil {
				return nil, err
			}
			query, err := requiredString(params, "query")
			if err != nil {
				return nil, err
			}
			maxWords := optionalInt(params, "maxLength", defaultSummaryWords)

			match, err := findDocument(ctx, store, name, query)
			if err != nil {
				return nil, err
			}
			if match == nil {
				return map[string]any{
					"success": false,
					"message": fmt.Sprintf("Document %q was not found in the database.", name),
				}, nil
			}

			prompt := fmt.Sprintf(
				"Create a summary of the following document in at most %d words. Focus on: %s\n\nDocument:\n%s",
				maxWords, query, match.Text)
			summary, err := model.Chat(ctx, "", prompt)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"success":          true,
				"documentName":     match.FileName(),
				"folderPath":       match.Metadata.FolderPath,
				"googleLink":       match.GoogleLink,
				"extension":        match.Metadata.Extension,
				"summary":          summary,
				"originalLength":   wordCount(match.Text),
				"summaryWordCount": wordCount(summary),
			}, nil
		},
	}
}

// findDocument tries an exact metadata match on the name first, then a
// keyword search with common extensions stripped. Returns nil when nothing
// matches.
func findDocument(ctx context.Context, store *vectorstore.Store, name, query string) (*models.SearchResult, error) {
	exact, err := store.Search(ctx, query, 1, models.SearchOptions{
		MetadataFilter: map[string]string{"name": name},
	})
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return &exact[0], nil
	}

	stripped := stripExtension(name)
	fuzzy, err := store.Search(ctx, stripped, 5, models.SearchOptions{Keyword: stripped})
	if err != nil {
		return nil, err
	}
	if len(fuzzy) > 0 {
		return &fuzzy[0], nil
	}
	return nil, nil
}

func stripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range commonExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
