// Package agent implements the tool-using agent loop:
//
//	system + user turns → ChatWithTools (tool use forced on the first
//	iteration) → execute returned tool calls sequentially → append results
//	with a convergence directive → repeat until the model answers with text
//	or the iteration budget runs out.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/tools"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// Iteration bounds. Requests may ask for 1..MaxIterationsCeiling.
const (
	DefaultMaxIterations = 5
	MaxIterationsCeiling = 10
)

const systemInstruction = "You are a document assistant with access to tools over a corpus of documents " +
	"synced from a shared drive. Use the tools to answer the user's request: search the corpus, " +
	"summarize documents, send emails or report corpus statistics. Always respond in the language " +
	"the user wrote in."

// Orchestrator drives one bounded conversation per task. It holds no
// per-request state; the turn sequence lives on the stack of ExecuteTask.
type Orchestrator struct {
	model    contracts.Model
	registry *tools.Registry
}

// New creates an orchestrator over the model and tool registry.
func New(model contracts.Model, registry *tools.Registry) *Orchestrator {
	return &Orchestrator{model: model, registry: registry}
}

// ExecuteTask runs the agent loop for one user prompt. maxIterations of 0
// selects the default; values outside 1..10 are rejected.
func (o *Orchestrator) ExecuteTask(ctx context.Context, userPrompt string, maxIterations int) (*models.TaskResult, error) {
	if userPrompt == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", models.ErrBadRequest)
	}
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxIterations < 1 || maxIterations > MaxIterationsCeiling {
		return nil, fmt.Errorf("%w: maxIterations must be between 1 and %d", models.ErrBadRequest, MaxIterationsCeiling)
	}

	taskID := uuid.NewString()
	log.Info().Str("task_id", taskID).Int("max_iterations", maxIterations).Msg("agent task started")

	turns := []models.Turn{
		models.SystemTurn(systemInstruction),
		models.UserTurn(userPrompt),
	}
	specs := o.registry.Specs()

	var executed []models.ExecutedToolCall

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("task cancelled: %w", err)
		}

		// Tool use is forced on the first iteration only.
		resp, err := o.model.ChatWithTools(ctx, turns, specs, iteration == 1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("task cancelled: %w", ctx.Err())
			}
			return nil, err
		}

		if len(resp.ToolCalls) > 0 {
			known := make([]models.ToolCall, 0, len(resp.ToolCalls))
			for _, call := range resp.ToolCalls {
				if !o.registry.Has(call.Name) {
					log.Warn().Str("tool", call.Name).Msg("model requested unknown tool, skipping")
					continue
				}
				known = append(known, call)
			}
			if len(known) == 0 {
				continue
			}

			turns = append(turns, models.AssistantTurn(resp.Text, known))

			for _, call := range known {
				payload, err := o.registry.Invoke(ctx, call)
				if err != nil {
					if ctx.Err() != nil {
						return nil, fmt.Errorf("task cancelled: %w", ctx.Err())
					}
					payload = map[string]any{"error": err.Error()}
				}

				payload = withDirective(call.Name, payload)
				turns = append(turns, models.ToolTurn(call.ID, call.Name, payload))
				executed = append(executed, models.ExecutedToolCall{
					Name:       call.Name,
					Parameters: call.Parameters,
					Result:     payload,
				})
			}

			log.Debug().Int("iteration", iteration).Int("tool_calls", len(known)).Msg("agent loop continuing")
			continue
		}

		if resp.Text != "" {
			answer := formatAnswer(resp.Text, executed)
			log.Info().Str("task_id", taskID).Int("iterations", iteration).Int("tool_calls", len(executed)).Msg("agent task complete")
			return &models.TaskResult{
				TaskID:     taskID,
				Success:    true,
				Answer:     answer,
				ToolCalls:  executed,
				Iterations: iteration,
			}, nil
		}

		return nil, fmt.Errorf("%w: response carried neither tool calls nor text", models.ErrModelFailure)
	}

	log.Warn().Str("task_id", taskID).Int("max_iterations", maxIterations).Msg("agent hit iteration budget")
	return nil, fmt.Errorf("%w: task too complex, gave up after %d iterations", models.ErrMaxIterations, maxIterations)
}

// withDirective copies the payload and appends the instruction that steers
// the model's next turn. Without it models tend to re-issue the same call
// instead of answering.
func withDirective(toolName string, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}

	if _, failed := payload["error"]; failed {
		out["instruction"] = "The tool failed. Explain the problem to the user in their language; do not retry more than once."
		return out
	}

	switch toolName {
	case "searchDocuments":
		if count, _ := payload["count"].(int); count > 0 {
			out["instruction"] = "Documents found. Present them to the user in the user's language. Do not call tools again."
		} else {
			out["instruction"] = "No documents found. Tell the user in their language. Do not call tools again."
		}
	case "summarizeDocument":
		if ok, _ := payload["success"].(bool); ok {
			out["instruction"] = "Summary created. Present it in the user's language. Do not call tools again."
		} else {
			out["instruction"] = "Document not found. Tell the user courteously in their language. Do not call tools again."
		}
	case "sendEmail":
		out["instruction"] = "Email sent. Confirm it to the user in their language. Do not call tools again."
	case "getDocumentStats":
		out["instruction"] = "Stats retrieved. Present them in the user's language. Do not call tools again."
	}
	return out
}
