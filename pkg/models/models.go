package models

import (
	"errors"
	"path"
	"strings"
)

// ── Error kinds ──────────────────────────────────────────────

// Sentinel errors for the failure taxonomy. Callers classify with errors.Is;
// the HTTP layer maps them to status codes.
var (
	// ErrBadRequest covers empty prompts, out-of-range iteration counts and
	// malformed tool parameters.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound is returned when a named document cannot be located.
	// Inside the agent loop this is reflected as a tool result, never as a
	// fatal request error.
	ErrNotFound = errors.New("not found")

	// ErrModelFailure marks a model that errored or returned neither text
	// nor tool calls. Fatal to the request.
	ErrModelFailure = errors.New("model failure")

	// ErrMaxIterations marks an agent loop that exhausted its iteration
	// budget without a final text response.
	ErrMaxIterations = errors.New("maximum tool usage reached")

	// ErrStoreUnavailable wraps any vector backend error. Retryable.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// ── Drive MIME types ─────────────────────────────────────────

const (
	MimeGoogleFolder = "application/vnd.google-apps.folder"
	MimeGoogleDoc    = "application/vnd.google-apps.document"
	MimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeGoogleSlides = "application/vnd.google-apps.presentation"

	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportMime returns the portable MIME a Drive-native format is exported to
// before parsing. ok is false for non-native MIMEs, which are downloaded as-is.
func ExportMime(mimeType string) (string, bool) {
	switch mimeType {
	case MimeGoogleDoc:
		return MimeDOCX, true
	case MimeGoogleSheet:
		return MimeXLSX, true
	case MimeGoogleSlides:
		return MimePDF, true
	}
	return "", false
}

// ExtensionFor maps a MIME type to the file extension used for temp downloads
// and display names.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case MimeGoogleDoc, MimeDOCX:
		return ".docx"
	case MimeGoogleSheet, MimeXLSX:
		return ".xlsx"
	case MimeGoogleSlides:
		return ".pdf"
	case MimePDF:
		return ".pdf"
	}
	if strings.HasPrefix(mimeType, "text/") {
		return ".txt"
	}
	return ""
}

// DriveLink derives the browser URL for a file from its id and MIME type.
func DriveLink(id, mimeType string) string {
	switch mimeType {
	case MimeGoogleDoc:
		return "https://docs.google.com/document/d/" + id
	case MimeGoogleSheet:
		return "https://docs.google.com/spreadsheets/d/" + id
	case MimeGoogleSlides:
		return "https://docs.google.com/presentation/d/" + id
	}
	return "https://drive.google.com/file/d/" + id
}

// ── Documents ────────────────────────────────────────────────

// DocumentMetadata is the side metadata stored with each vector document.
// Immutable once written for a given (id, modifiedTime).
type DocumentMetadata struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	FolderPath   string `json:"folderPath"`
	ModifiedTime string `json:"modifiedTime"`
	Extension    string `json:"extension"`
	GoogleLink   string `json:"googleLink,omitempty"`
}

// Link returns the stored link if present, otherwise derives one from the
// document id and MIME type.
func (m DocumentMetadata) Link(id string) string {
	if m.GoogleLink != "" {
		return m.GoogleLink
	}
	return DriveLink(id, m.MimeType)
}

// Document is the stored unit in the vector store. ID is the Drive file id,
// stable across renames and moves.
type Document struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Embedding []float32        `json:"embedding,omitempty"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// Match is a raw nearest-neighbour hit from a vector backend. Distance is
// cosine distance; lower is more similar.
type Match struct {
	Doc      Document `json:"doc"`
	Distance float64  `json:"distance"`
}

// SearchResult is a formatted row returned by the vector store façade.
type SearchResult struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	Metadata     DocumentMetadata `json:"metadata"`
	Distance     float64          `json:"distance"`
	KeywordCount int              `json:"keywordCount,omitempty"`
	Path         string           `json:"path"`
	GoogleLink   string           `json:"googleLink"`
}

// FileName returns the display name with extension, e.g. "report.pdf".
func (r SearchResult) FileName() string {
	name := r.Metadata.Name
	if ext := r.Metadata.Extension; ext != "" && !strings.HasSuffix(name, ext) {
		return name + ext
	}
	return name
}

// SearchOptions tunes a façade search beyond the query and result count.
type SearchOptions struct {
	// Keyword, when set, retains only rows whose text contains it
	// case-insensitively and re-ranks by match count.
	Keyword string

	// MaxDistance, when non-nil, drops rows with distance above the cutoff.
	MaxDistance *float64

	// MetadataFilter retains only rows whose metadata matches every entry
	// exactly. Supported keys: name, mimeType, folderPath, extension.
	MetadataFilter map[string]string
}

// StoreStats is the result of a façade GetStats call.
type StoreStats struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// DocumentPath joins the configured root name, folder path and file name into
// the display path carried by search results.
func DocumentPath(rootName string, md DocumentMetadata) string {
	name := md.Name
	if md.Extension != "" && !strings.HasSuffix(name, md.Extension) {
		name += md.Extension
	}
	return path.Join(rootName, md.FolderPath, name)
}

// ── Drive files & sync state ─────────────────────────────────

// DriveFile describes one file observed during a sync traversal. Folders are
// traversal nodes only and never become DriveFiles.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	FolderPath   string `json:"folderPath"`
	ModifiedTime string `json:"modifiedTime"`
}

// SyncRecord is the persistent scalar record of the last ingestion run.
type SyncRecord struct {
	LastSyncTime string `json:"lastSyncTime"`
	FileCount    int    `json:"fileCount"`
}

// SyncReport aggregates the outcome of a single pipeline run.
type SyncReport struct {
	Listed     int   `json:"listed"`
	Added      int   `json:"added"`
	Updated    int   `json:"updated"`
	Deleted    int   `json:"deleted"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"durationMs"`
}

// ── Tool schema & calls ──────────────────────────────────────

// Property is one named parameter in a tool schema. Types are the primitive
// JSON-schema types: "string", "integer", "number", "boolean".
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ObjectSchema is the small JSON-schema subset tools declare: an object with
// primitive-typed properties and a required list.
type ObjectSchema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolSpec declares one tool to the model.
type ToolSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  ObjectSchema `json:"parameters"`
}

// ToolCall is a structured tool invocation emitted by the model. ID is the
// provider-assigned call id used to pair results with calls on the wire.
type ToolCall struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// ExecutedToolCall records one tool invocation and its serialized result for
// the task transcript.
type ExecutedToolCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
	Result     map[string]any `json:"result"`
}

// ── Conversation turns ───────────────────────────────────────

// Turn roles. A turn is one of: system instruction, user text, assistant
// text, assistant tool calls, or a tool result.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry in the per-request conversation sequence. The sequence is
// owned by a single orchestrator invocation and discarded on return.
type Turn struct {
	Role      string         `json:"role"`
	Text      string         `json:"text,omitempty"`
	ToolCalls []ToolCall     `json:"toolCalls,omitempty"` // assistant turns only
	ToolName  string         `json:"toolName,omitempty"`  // tool turns only
	CallID    string         `json:"callId,omitempty"`    // tool turns only
	Payload   map[string]any `json:"payload,omitempty"`   // tool turns only
}

func SystemTurn(text string) Turn { return Turn{Role: RoleSystem, Text: text} }
func UserTurn(text string) Turn   { return Turn{Role: RoleUser, Text: text} }

func AssistantTurn(text string, calls []ToolCall) Turn {
	return Turn{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

func ToolTurn(callID, name string, payload map[string]any) Turn {
	return Turn{Role: RoleTool, ToolName: name, CallID: callID, Payload: payload}
}

// ModelResponse is the outcome of one tool-augmented model call: either tool
// calls or final text, never both.
type ModelResponse struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// TaskResult is the user-facing outcome of one agent task. TaskID is
// assigned per request and carried through logs for correlation.
type TaskResult struct {
	TaskID     string             `json:"taskId"`
	Success    bool               `json:"success"`
	Answer     string             `json:"answer"`
	ToolCalls  []ExecutedToolCall `json:"toolCalls"`
	Iterations int                `json:"iterations"`
}
