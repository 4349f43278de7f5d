// Package contracts defines the capability interfaces the core depends on.
//
// The core (agent orchestrator, ingestion pipeline, vector store façade)
// never talks to a provider SDK directly; it consumes these narrow handles,
// constructed once at startup and injected through pkg/server. Tests swap in
// in-memory fakes that record calls and return scripted responses.
package contracts

import (
	"context"
	"io"

	"github.com/driveagent/driveagent/pkg/models"
)

// ── Model ───────────────────────────────────────────────────

// Model is the generative language model plus its embedding endpoint.
type Model interface {
	// Chat sends a plain system+user exchange and returns the text reply.
	Chat(ctx context.Context, system, user string) (string, error)

	// ChatWithTools sends the conversation with tool declarations. When
	// forceToolUse is set the model must emit at least one tool call. The
	// response carries either tool calls or final text, never both.
	ChatWithTools(ctx context.Context, turns []models.Turn, tools []models.ToolSpec, forceToolUse bool) (*models.ModelResponse, error)

	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ── Email ───────────────────────────────────────────────────

// EmailSender delivers one HTML email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ── Drive ───────────────────────────────────────────────────

// DriveClient enumerates and downloads files from the remote drive.
type DriveClient interface {
	// ListTree walks the folder tree under rootFolderID breadth-first and
	// returns every file with its folder-relative path. Folders that fail
	// to list are skipped; the traversal is bounded, so results may be
	// partial on pathological trees.
	ListTree(ctx context.Context, rootFolderID string) ([]models.DriveFile, error)

	// Download streams the file bytes to dst. Drive-native formats are
	// exported server-side to their portable MIME first.
	Download(ctx context.Context, fileID, mimeType string, dst io.Writer) error

	// ReadSheet reads a native spreadsheet through the structured API:
	// sheet at a time, empty cells filtered, tabs between cells.
	ReadSheet(ctx context.Context, fileID string) (string, error)
}

// ── Text extraction ─────────────────────────────────────────

// TextExtractor produces plain text from a downloaded file. An empty string
// with nil error means "nothing extractable" and is not a failure.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) (string, error)
}

// ── Vector backend ──────────────────────────────────────────

// VectorBackend is the raw nearest-neighbour store under the façade in
// internal/vectorstore. Implementations: pgvector (production), embedded
// in-memory brute force (dev and tests).
type VectorBackend interface {
	// Upsert replaces any prior content for each document id.
	Upsert(ctx context.Context, docs []models.Document) error

	// Query returns the topK nearest documents by ascending cosine distance.
	Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error)

	// All returns every stored document (id, text, metadata).
	All(ctx context.Context) ([]models.Document, error)

	Delete(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// ── Sync cache ──────────────────────────────────────────────

// SyncCache persists the scalar record of the last successful ingestion run.
// Load returns (nil, nil) when no prior sync exists or the record is corrupt.
type SyncCache interface {
	Load() (*models.SyncRecord, error)
	Store(rec *models.SyncRecord) error
}
