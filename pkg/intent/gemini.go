package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/hearthware/tvpilot/pkg/command"
)

var _ Engine = (*GeminiEngine)(nil)

// GeminiEngine runs inference through the Gemini API using function
// declarations.
type GeminiEngine struct {
	Client *genai.Client
	Model  string

	// MaxTokens caps the completion; 0 means DefaultMaxTokens.
	MaxTokens int
}

// NewGeminiEngine creates an engine backed by the Gemini API.
func NewGeminiEngine(ctx context.Context, apiKey, model string) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("intent: genai client: %w", err)
	}
	return &GeminiEngine{Client: client, Model: model}, nil
}

// Infer implements Engine.
func (e *GeminiEngine) Infer(ctx context.Context, req Request) (Result, error) {
	maxTokens := e.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  geminiConvSchema(t.Argument),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := geminiConvHistory(req.History)
	if len(contents) == 0 {
		return Result{}, fmt.Errorf("intent: empty history")
	}

	resp, err := e.Client.Models.GenerateContent(ctx, e.Model, contents, cfg)
	if err != nil {
		if apiErr, ok := err.(*apierror.APIError); ok {
			err = apiErr.Unwrap()
		}
		return Result{}, fmt.Errorf("intent: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Result{}, ErrNoChoices
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonMaxTokens, genai.FinishReasonUnspecified:
	case genai.FinishReasonSafety:
		return Result{}, ErrBlocked
	default:
		return Result{}, fmt.Errorf("intent: unexpected finish reason: %s", cand.FinishReason)
	}

	var result Result
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			switch {
			case part.Text != "":
				sb.WriteString(part.Text)
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return Result{}, fmt.Errorf("intent: encode call arguments: %w", err)
				}
				result.Invocations = append(result.Invocations, command.Invocation{
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			}
		}
	}
	result.SpokenText = strings.TrimSpace(sb.String())
	return result, nil
}

// geminiConvHistory maps turns onto alternating user/model contents,
// folding consecutive same-role turns into one content.
func geminiConvHistory(history []Turn) []*genai.Content {
	var contents []*genai.Content
	var last *genai.Content
	for _, turn := range history {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		part := genai.NewPartFromText(turn.Content)
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, part)
			continue
		}
		last = &genai.Content{Role: role, Parts: []*genai.Part{part}}
		contents = append(contents, last)
	}
	return contents
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
