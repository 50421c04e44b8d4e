package command

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Invocation is one named tool call as produced by the intent engine.
// Arguments is the raw JSON object the model emitted; it may be slightly
// malformed and is repaired before being rejected.
type Invocation struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Dropped records an invocation the translator rejected and why.
type Dropped struct {
	Invocation Invocation
	Err        error
}

// Translate converts intent invocations into validated, canonical commands.
// A malformed invocation (unknown kind, missing required field, out-of-range
// enum) is dropped and reported; it never aborts translation of the rest of
// the batch. Commands come back in the order the invocations were given.
func Translate(invocations []Invocation) ([]Command, []Dropped) {
	var (
		commands []Command
		dropped  []Dropped
	)
	for _, inv := range invocations {
		cmd, err := translateOne(inv)
		if err != nil {
			dropped = append(dropped, Dropped{Invocation: inv, Err: err})
			continue
		}
		commands = append(commands, cmd)
	}
	return commands, dropped
}

func translateOne(inv Invocation) (Command, error) {
	cmd, err := New(inv.Name)
	if err != nil {
		return nil, err
	}
	if err := unmarshalArguments(inv.Arguments, cmd); err != nil {
		return nil, err
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// unmarshalArguments unmarshals a model-emitted argument object into v. An
// empty argument string counts as an empty object. A syntax error triggers
// one repair attempt with jsonrepair before the error is returned.
func unmarshalArguments(data []byte, v any) error {
	if strings.TrimSpace(string(data)) == "" {
		data = []byte("{}")
	}
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
