package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/hearthware/tvpilot/pkg/command"
)

// DefaultMaxTokens bounds the spoken reply. Responses are read aloud, so
// they stay short.
const DefaultMaxTokens = 512

const (
	oaiFinishReasonStop          = "stop"
	oaiFinishReasonToolCalls     = "tool_calls"
	oaiFinishReasonLength        = "length"
	oaiFinishReasonContentFilter = "content_filter"
)

var _ Engine = (*OpenAIEngine)(nil)

// OpenAIEngine runs inference through an OpenAI-compatible chat-completions
// endpoint using tool calls.
type OpenAIEngine struct {
	Client *openai.Client
	Model  string

	// MaxTokens caps the completion; 0 means DefaultMaxTokens.
	MaxTokens int
}

// NewOpenAIEngine creates an engine for the given endpoint. An empty
// baseURL targets the OpenAI API.
func NewOpenAIEngine(apiKey, baseURL, model string) *OpenAIEngine {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIEngine{Client: &client, Model: model}
}

// Infer implements Engine.
func (e *OpenAIEngine) Infer(ctx context.Context, req Request) (Result, error) {
	maxTokens := e.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := openai.ChatCompletionNewParams{
		Model:     e.Model,
		Messages:  oaiConvMessages(req),
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if len(req.Tools) > 0 {
		params.Tools = oaiConvTools(req.Tools)
	}

	resp, err := e.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("intent: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ErrNoChoices
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrBlocked, choice.Message.Refusal)
	}
	if choice.FinishReason == oaiFinishReasonContentFilter {
		return Result{}, ErrBlocked
	}

	result := Result{SpokenText: strings.TrimSpace(choice.Message.Content)}
	for _, tc := range choice.Message.ToolCalls {
		result.Invocations = append(result.Invocations, command.Invocation{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return result, nil
}

func oaiConvMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Content))
		default:
			msgs = append(msgs, openai.UserMessage(turn.Content))
		}
	}
	return msgs
}

func oaiConvTools(tools []*Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				Parameters:  oaiConvSchema(t.Argument),
			},
		})
	}
	return out
}

func oaiConvSchema(s *jsonschema.Schema) openai.FunctionParameters {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m openai.FunctionParameters
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
