// Package defs holds the typed model of the scripting-language definitions
// document (constants, functions, events) plus the parser that builds it from
// the upstream YAML and the process-lifetime Library cache.
package defs

// ConstantType enumerates the value types a constant may declare.
type ConstantType string

const (
	TypeInteger  ConstantType = "integer"
	TypeFloat    ConstantType = "float"
	TypeString   ConstantType = "string"
	TypeVector   ConstantType = "vector"
	TypeRotation ConstantType = "rotation"
	TypeKey      ConstantType = "key"
)

// validConstantTypes is the closed set accepted by the parser.
var validConstantTypes = map[ConstantType]struct{}{
	TypeInteger:  {},
	TypeFloat:    {},
	TypeString:   {},
	TypeVector:   {},
	TypeRotation: {},
	TypeKey:      {},
}

// Definitions is the parsed, immutable definitions document. Each map is
// keyed by entry name; the key always equals the value's Name field.
type Definitions struct {
	SyntaxVersion int
	Constants     map[string]Constant
	Functions     map[string]Function
	Events        map[string]Event
}

// Constant describes a named scripting constant.
type Constant struct {
	Name    string
	Tooltip string
	Type    ConstantType
	Value   string // literal representation, not validated against Type
	Private bool
}

// Argument describes a single function or event parameter.
type Argument struct {
	Name    string
	Type    string
	Tooltip string
}

// Flags are the boolean feature markers shared by functions and events.
// Hyphenated source keys (god-mode, linden-experience, lsl-only, slua-only)
// map onto these fields; all default to false when absent.
type Flags struct {
	Deprecated       bool
	Experience       bool
	LindenExperience bool
	GodMode          bool
	Private          bool
	LSLOnly          bool
	SluaOnly         bool
}

// Function describes a named scripting function.
//
// Energy and Sleep are nil when the source omits them; an explicit 0 in the
// source stays 0 here, distinct from absent.
type Function struct {
	Name       string
	Tooltip    string
	ReturnType string
	Energy     *float64
	Sleep      *float64
	Flags
	Arguments map[string]Argument
}

// Event describes a named scripting event handler. Events carry no return
// value or resource cost.
type Event struct {
	Name    string
	Tooltip string
	Flags
	Arguments map[string]Argument
}
