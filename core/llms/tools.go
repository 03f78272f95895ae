package llms

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is a function the LLM may call, described by a JSON schema reflected
// from the handler's parameter struct.
type Tool struct {
	Type     string
	Function ToolFunction

	execute func(arguments string) (string, error)
}

type ToolFunction struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// NewTool builds a Tool whose parameter schema is reflected from T. The
// handler receives the call arguments unmarshalled into T.
func NewTool[T any](name, description string, handler func(parameters T) (string, error)) Tool {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.ReflectFromType(reflect.TypeFor[T]())
	schema.Version = ""

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		execute: func(arguments string) (string, error) {
			var parameters T
			if arguments != "" {
				if err := json.Unmarshal([]byte(arguments), &parameters); err != nil {
					return "", fmt.Errorf("failed to unmarshal tool arguments: %w", err)
				}
			}
			return handler(parameters)
		},
	}
}

// Execute runs the tool with raw JSON arguments.
func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no handler", t.Function.Name)
	}
	return t.execute(arguments)
}
