// Package tools implements the tool registry and dispatcher (§4.I): a
// flat namespace of named operations, each with a typed input schema and
// a side-effect classification, dispatched by validating inputs, calling
// the handler, and shaping the result or error for the wire.
package tools

import "github.com/DEVCOACH/internal/domain"

// SideEffect classifies what calling a tool can do to the world.
type SideEffect string

const (
	SideEffectRead        SideEffect = "read"
	SideEffectMutate      SideEffect = "mutate"
	SideEffectDestructive SideEffect = "destructive"
)

// FieldType enumerates the semantic types a tool's input schema can
// declare. The dispatcher coerces loosely-typed input (e.g. JSON numbers
// arriving as float64) into these before a handler ever sees them.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeInt        FieldType = "int"
	TypeFloat      FieldType = "float"
	TypeBool       FieldType = "bool"
	TypeStringList FieldType = "string[]"
	TypeObject     FieldType = "object"
)

// Field is one entry of a tool's input schema.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Handler is a tool's implementation: already-validated, already-typed
// params in, a JSON-able result or a *domain.CoordError out.
type Handler func(params map[string]interface{}) (interface{}, error)

// Definition is what a component registers for one named operation.
type Definition struct {
	Name       string
	Schema     []Field
	SideEffect SideEffect
	Handler    Handler
}

// Summary is what _list_tools returns for one tool: everything about a
// Definition except the handler itself.
type Summary struct {
	Name       string     `json:"name"`
	Schema     []Field    `json:"schema"`
	SideEffect SideEffect `json:"side_effect"`
}

// listToolsName is the reserved tool name that returns the registry
// itself rather than dispatching to a registered handler.
const listToolsName = "_list_tools"

// Result is the dispatch envelope: exactly one of Value or Error is set.
type Result struct {
	Value interface{}        `json:"result,omitempty"`
	Error *domain.CoordError `json:"error,omitempty"`
}
