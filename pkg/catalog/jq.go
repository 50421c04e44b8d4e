package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// JQExpr wraps a jq expression with its pre-parsed query. The expression is
// parsed during deserialization to catch errors at config load instead of
// on the first lookup.
type JQExpr struct {
	Expr  string      // original expression string
	Query *gojq.Query // pre-parsed query (not serialized)
}

// MarshalJSON implements json.Marshaler.
func (e JQExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Expr)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *JQExpr) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &e.Expr); err != nil {
		return err
	}
	return e.parse()
}

// MarshalYAML implements yaml.Marshaler.
func (e JQExpr) MarshalYAML() (any, error) {
	return e.Expr, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *JQExpr) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&e.Expr); err != nil {
		return err
	}
	return e.parse()
}

func (e *JQExpr) parse() error {
	if e.Expr == "" {
		return nil
	}
	query, err := gojq.Parse(e.Expr)
	if err != nil {
		return fmt.Errorf("invalid jq expression %q: %w", e.Expr, err)
	}
	e.Query = query
	return nil
}

// Run executes the query on the input and returns the first result as a
// JSON string.
func (e *JQExpr) Run(input any) (string, error) {
	if e == nil || e.Query == nil {
		return "", nil
	}
	iter := e.Query.Run(input)
	v, ok := iter.Next()
	if !ok {
		return "", fmt.Errorf("jq expression returned no result")
	}
	if err, ok := v.(error); ok {
		return "", fmt.Errorf("jq error: %w", err)
	}
	result, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal jq result: %w", err)
	}
	return string(result), nil
}
