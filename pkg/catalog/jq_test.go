package catalog

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestJQExpr_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantExpr string
		wantErr  bool
	}{
		{
			name:     "simple expression",
			json:     `".results"`,
			wantExpr: ".results",
		},
		{
			name:     "transform expression",
			json:     `"{term: .title, kind: .contentType}"`,
			wantExpr: "{term: .title, kind: .contentType}",
		},
		{
			name:     "empty expression",
			json:     `""`,
			wantExpr: "",
		},
		{
			name:    "invalid jq",
			json:    `"invalid { jq"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expr JQExpr
			err := json.Unmarshal([]byte(tt.json), &expr)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if expr.Expr != tt.wantExpr {
				t.Errorf("Expr = %q, want %q", expr.Expr, tt.wantExpr)
			}
			if tt.wantExpr != "" && expr.Query == nil {
				t.Error("Query is nil for non-empty expression")
			}
		})
	}
}

func TestJQExpr_UnmarshalYAML(t *testing.T) {
	var expr JQExpr
	if err := yaml.Unmarshal([]byte(`".Items[0]"`), &expr); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if expr.Expr != ".Items[0]" {
		t.Errorf("Expr = %q, want %q", expr.Expr, ".Items[0]")
	}
	if expr.Query == nil {
		t.Error("Query is nil after YAML unmarshal")
	}

	if err := yaml.Unmarshal([]byte(`"bad { jq"`), &expr); err == nil {
		t.Error("expected error for invalid expression, got nil")
	}
}

func TestJQExpr_Run(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		input   any
		want    string
		wantErr bool
	}{
		{
			name:  "simple field",
			expr:  ".title",
			input: map[string]any{"title": "Dune"},
			want:  `"Dune"`,
		},
		{
			name:  "nested field",
			expr:  ".data.count",
			input: map[string]any{"data": map[string]any{"count": 3}},
			want:  `3`,
		},
		{
			name: "map results",
			expr: `[.Items[] | {title: .Name, service: "jellyfin"}]`,
			input: map[string]any{"Items": []any{
				map[string]any{"Name": "Dune"},
			}},
			want: `[{"service":"jellyfin","title":"Dune"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expr JQExpr
			exprJSON, _ := json.Marshal(tt.expr)
			if err := json.Unmarshal(exprJSON, &expr); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			result, err := expr.Run(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result != tt.want {
				t.Errorf("Run() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestJQExpr_RunNil(t *testing.T) {
	var expr *JQExpr
	result, err := expr.Run(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != "" {
		t.Errorf("Run() = %q, want empty", result)
	}
}
