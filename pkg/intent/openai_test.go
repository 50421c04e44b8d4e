package intent

import (
	"context"
	"testing"
)

// ====== Message Conversion ======

func TestOAIConvMessages(t *testing.T) {
	req := Request{
		System: "be brief",
		History: []Turn{
			{Role: RoleUser, Content: "pause"},
			{Role: RoleAssistant, Content: "Paused"},
			{Role: RoleUser, Content: "volume up"},
		},
	}
	msgs := oaiConvMessages(req)
	if len(msgs) != 4 {
		t.Fatalf("len(msgs) = %d; want 4", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Fatal("msgs[0] is not a system message")
	}
	if got := msgs[0].OfSystem.Content.OfString.Value; got != "be brief" {
		t.Errorf("system content = %q; want %q", got, "be brief")
	}
	if msgs[1].OfUser == nil || msgs[3].OfUser == nil {
		t.Error("user turns did not map to user messages")
	}
	if msgs[2].OfAssistant == nil {
		t.Error("assistant turn did not map to an assistant message")
	}
}

func TestOAIConvMessagesNoSystem(t *testing.T) {
	msgs := oaiConvMessages(Request{History: []Turn{{Role: RoleUser, Content: "hi"}}})
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d; want 1", len(msgs))
	}
	if msgs[0].OfUser == nil {
		t.Error("msgs[0] is not a user message")
	}
}

// ====== Tool Conversion ======

func TestOAIConvTools(t *testing.T) {
	params := oaiConvTools(DefaultTools())
	if len(params) != len(DefaultTools()) {
		t.Fatalf("len(params) = %d; want %d", len(params), len(DefaultTools()))
	}
	for i, tool := range DefaultTools() {
		fn := params[i].Function
		if fn.Name != tool.Name {
			t.Errorf("params[%d].Name = %q; want %q", i, fn.Name, tool.Name)
		}
		if got := fn.Description.Value; got != tool.Description {
			t.Errorf("params[%d].Description = %q; want %q", i, got, tool.Description)
		}
		props, ok := fn.Parameters["properties"].(map[string]any)
		if !ok {
			t.Fatalf("params[%d].Parameters has no properties map", i)
		}
		for name := range tool.Argument.Properties {
			if _, ok := props[name]; !ok {
				t.Errorf("tool %q parameters missing property %q", tool.Name, name)
			}
		}
	}
}

func TestOAIConvSchemaNil(t *testing.T) {
	if got := oaiConvSchema(nil); got != nil {
		t.Errorf("oaiConvSchema(nil) = %v; want nil", got)
	}
}

// ====== EngineFunc ======

func TestEngineFunc(t *testing.T) {
	var captured Request
	fn := EngineFunc(func(ctx context.Context, req Request) (Result, error) {
		captured = req
		return Result{SpokenText: "ok"}, nil
	})
	res, err := fn.Infer(context.Background(), Request{System: "sys"})
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if res.SpokenText != "ok" {
		t.Errorf("SpokenText = %q; want %q", res.SpokenText, "ok")
	}
	if captured.System != "sys" {
		t.Errorf("captured.System = %q; want %q", captured.System, "sys")
	}
}
