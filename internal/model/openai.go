// Package model implements the contracts.Model capability against any
// OpenAI-compatible chat and embeddings endpoint.
package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/driveagent/driveagent/pkg/models"
)

// OpenAIModel holds one chat model and one embedding model on a shared client.
type OpenAIModel struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	dimensions     int
}

// NewOpenAIModel creates the capability. baseURL may be empty for the
// default endpoint; dimensions applies to the embedding model (default 768).
func NewOpenAIModel(apiKey, baseURL, chatModel, embeddingModel string, dimensions int) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if dimensions <= 0 {
		dimensions = 768
	}
	return &OpenAIModel{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
	}
}

// Chat sends a plain system+user exchange and returns the text reply.
func (m *OpenAIModel) Chat(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat: %v", models.ErrModelFailure, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat returned no choices", models.ErrModelFailure)
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatWithTools sends the conversation with tool declarations. forceToolUse
// maps to tool_choice "required"; otherwise the model is free to answer with
// text. The response carries either tool calls or text, never both.
func (m *OpenAIModel) ChatWithTools(ctx context.Context, turns []models.Turn, tools []models.ToolSpec, forceToolUse bool) (*models.ModelResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.chatModel,
		Messages: toMessages(turns),
		Tools:    toTools(tools),
	}
	if forceToolUse {
		req.ToolChoice = "required"
	} else {
		req.ToolChoice = "auto"
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: chat with tools: %v", models.ErrModelFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat returned no choices", models.ErrModelFailure)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		calls := make([]models.ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			params := map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &params); err != nil {
					return nil, fmt.Errorf("%w: malformed arguments for %s: %v", models.ErrModelFailure, tc.Function.Name, err)
				}
			}
			calls = append(calls, models.ToolCall{
				ID:         tc.ID,
				Name:       tc.Function.Name,
				Parameters: params,
			})
		}
		return &models.ModelResponse{ToolCalls: calls}, nil
	}

	return &models.ModelResponse{Text: msg.Content}, nil
}

// Embed returns the embedding vector for one text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(m.embeddingModel),
		Dimensions: m.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: no data returned")
	}
	return resp.Data[0].Embedding, nil
}

// toMessages converts the conversation turn sequence to the wire format.
// Tool-result turns reference the originating call by id.
func toMessages(turns []models.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: t.Text})

		case models.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Text})

		case models.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Text}
			for _, call := range t.ToolCalls {
				args, err := json.Marshal(call.Parameters)
				if err != nil {
					log.Warn().Err(err).Str("tool", call.Name).Msg("tool call parameters not serializable")
					args = []byte("{}")
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:       call.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: call.Name, Arguments: string(args)},
				})
			}
			out = append(out, msg)

		case models.RoleTool:
			payload, err := json.Marshal(t.Payload)
			if err != nil {
				payload = []byte(`{"error":"unserializable tool result"}`)
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: t.CallID,
				Name:       t.ToolName,
				Content:    string(payload),
			})
		}
	}
	return out
}

// toTools converts typed tool specs into the wire declaration shape.
func toTools(specs []models.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": s.Parameters.Properties,
					"required":   s.Parameters.Required,
				},
			},
		})
	}
	return out
}
