// Package tools declares the agent's tools: name, parameter schema and the
// invoker bound to the vector store, email sender and model capabilities.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// DefaultToolTimeout bounds one tool invocation.
const DefaultToolTimeout = 30 * time.Second

// Invoker executes one tool call. A returned error means the capability
// failed or the parameters were malformed; domain outcomes like "document
// not found" are regular payloads with success=false.
type Invoker func(ctx context.Context, params map[string]any) (map[string]any, error)

// Tool pairs a declaration with its invoker.
type Tool struct {
	Spec   models.ToolSpec
	Invoke Invoker
}

// Registry holds the declared tools in a stable order.
type Registry struct {
	tools   map[string]Tool
	order   []string
	timeout time.Duration
}

// Config tunes tool behavior per deployment.
type Config struct {
	// DistanceCutoff gates searchDocuments results; <= 0 disables the gate.
	DistanceCutoff float64
	// Timeout bounds one tool invocation (default 30s).
	Timeout time.Duration
}

// NewRegistry declares the four agent tools against the given capabilities.
func NewRegistry(store *vectorstore.Store, email contracts.EmailSender, model contracts.Model, cfg Config) *Registry {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultToolTimeout
	}

	r := &Registry{tools: make(map[string]Tool), timeout: cfg.Timeout}
	r.register(searchDocumentsTool(store, cfg.DistanceCutoff))
	r.register(summarizeDocumentTool(store, model))
	r.register(sendEmailTool(email))
	r.register(documentStatsTool(store))
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Spec.Name] = t
	r.order = append(r.order, t.Spec.Name)
}

// Specs returns every tool declaration in registration order, in the shape
// ChatWithTools expects.
func (r *Registry) Specs() []models.ToolSpec {
	specs := make([]models.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec)
	}
	return specs
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Invoke runs one tool call under the per-tool timeout.
func (r *Registry) Invoke(ctx context.Context, call models.ToolCall) (map[string]any, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", models.ErrBadRequest, call.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := tool.Invoke(ctx, call.Parameters)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Dur("elapsed", time.Since(start)).Msg("tool invocation failed")
		return nil, err
	}

	log.Debug().Str("tool", call.Name).Dur("elapsed", time.Since(start)).Msg("tool invoked")
	return result, nil
}

// ── Parameter helpers ───────────────────────────────────────

func requiredString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required parameter %q", models.ErrBadRequest, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: parameter %q must be a non-empty string", models.ErrBadRequest, key)
	}
	return s, nil
}

func optionalString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func optionalInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64: // JSON numbers decode as float64
		return int(v)
	case int:
		return v
	}
	return fallback
}
