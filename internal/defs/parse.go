package defs

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	pipeerr "github.com/secondlife/create/internal/errors"
)

// Top-level keys of the upstream definitions document.
const (
	keySyntaxVersion = "llsd-lsl-syntax-version"
	keyConstants     = "constants"
	keyFunctions     = "functions"
	keyEvents        = "events"
)

// Parse unmarshals raw definitions YAML and maps it into a Definitions
// document. Optional fields default rather than fail; a missing or
// non-mapping entry is a hard parse error because entry names key every
// downstream lookup.
func Parse(raw []byte) (*Definitions, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryParse, pipeerr.SeverityFatal, "definitions document is not valid YAML")
	}

	defs := &Definitions{
		SyntaxVersion: intOr(doc[keySyntaxVersion], 0),
		Constants:     map[string]Constant{},
		Functions:     map[string]Function{},
		Events:        map[string]Event{},
	}

	constants, err := section(doc, keyConstants)
	if err != nil {
		return nil, err
	}
	for name, entry := range constants {
		c, err := mapConstant(name, entry)
		if err != nil {
			return nil, err
		}
		defs.Constants[name] = c
	}

	functions, err := section(doc, keyFunctions)
	if err != nil {
		return nil, err
	}
	for name, entry := range functions {
		f, err := mapFunction(name, entry)
		if err != nil {
			return nil, err
		}
		defs.Functions[name] = f
	}

	events, err := section(doc, keyEvents)
	if err != nil {
		return nil, err
	}
	for name, entry := range events {
		e, err := mapEvent(name, entry)
		if err != nil {
			return nil, err
		}
		defs.Events[name] = e
	}

	return defs, nil
}

// section returns the named top-level mapping, with each entry coerced to a
// mapping of its own. A missing section is an empty map, not an error.
func section(doc map[string]any, key string) (map[string]map[string]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return map[string]map[string]any{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
			fmt.Sprintf("top-level %q is not a mapping", key))
	}
	out := make(map[string]map[string]any, len(m))
	for name, v := range m {
		if strings.TrimSpace(name) == "" {
			return nil, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
				fmt.Sprintf("entry in %q has an empty name", key))
		}
		entry, ok := v.(map[string]any)
		if !ok {
			if v == nil {
				entry = map[string]any{}
			} else {
				return nil, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
					fmt.Sprintf("entry %q in %q is not a mapping", name, key)).WithContext("entry", name)
			}
		}
		out[name] = entry
	}
	return out, nil
}

func mapConstant(name string, entry map[string]any) (Constant, error) {
	c := Constant{
		Name:    name,
		Tooltip: NormalizeTooltip(stringOr(entry["tooltip"], "")),
		Type:    ConstantType(stringOr(entry["type"], "")),
		Value:   scalarString(entry["value"]),
		Private: boolOr(entry["private"], false),
	}
	if _, ok := validConstantTypes[c.Type]; !ok {
		return Constant{}, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
			fmt.Sprintf("constant %q has unknown type %q", name, c.Type)).WithContext("entry", name)
	}
	return c, nil
}

func mapFunction(name string, entry map[string]any) (Function, error) {
	args, err := mergeArguments(name, entry["arguments"])
	if err != nil {
		return Function{}, err
	}
	return Function{
		Name:       name,
		Tooltip:    NormalizeTooltip(stringOr(entry["tooltip"], "")),
		ReturnType: stringOr(entry["return"], ""),
		Energy:     floatPtr(entry["energy"]),
		Sleep:      floatPtr(entry["sleep"]),
		Flags:      mapFlags(entry),
		Arguments:  args,
	}, nil
}

func mapEvent(name string, entry map[string]any) (Event, error) {
	args, err := mergeArguments(name, entry["arguments"])
	if err != nil {
		return Event{}, err
	}
	return Event{
		Name:      name,
		Tooltip:   NormalizeTooltip(stringOr(entry["tooltip"], "")),
		Flags:     mapFlags(entry),
		Arguments: args,
	}, nil
}

func mapFlags(entry map[string]any) Flags {
	return Flags{
		Deprecated:       boolOr(entry["deprecated"], false),
		Experience:       boolOr(entry["experience"], false),
		LindenExperience: boolOr(entry["linden-experience"], false),
		GodMode:          boolOr(entry["god-mode"], false),
		Private:          boolOr(entry["private"], false),
		LSLOnly:          boolOr(entry["lsl-only"], false),
		SluaOnly:         boolOr(entry["slua-only"], false),
	}
}

// mergeArguments collapses the upstream ordered parameter list (a sequence of
// single-entry maps) into a name-addressable map. A duplicated argument name
// keeps the later occurrence.
func mergeArguments(entryName string, raw any) (map[string]Argument, error) {
	args := map[string]Argument{}
	if raw == nil {
		return args, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
			fmt.Sprintf("entry %q: arguments is not a sequence", entryName)).WithContext("entry", entryName)
	}
	for _, item := range seq {
		frag, ok := item.(map[string]any)
		if !ok {
			return nil, pipeerr.New(pipeerr.CategoryParse, pipeerr.SeverityFatal,
				fmt.Sprintf("entry %q: argument fragment is not a mapping", entryName)).WithContext("entry", entryName)
		}
		for argName, v := range frag {
			fields, _ := v.(map[string]any)
			args[argName] = Argument{
				Name:    argName,
				Type:    stringOr(fields["type"], ""),
				Tooltip: NormalizeTooltip(stringOr(fields["tooltip"], "")),
			}
		}
	}
	return args, nil
}

// NormalizeTooltip converts escaped-newline sequences from the source into
// literal newlines. Idempotent: normalized text passes through unchanged.
func NormalizeTooltip(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func boolOr(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

// floatPtr maps an optional numeric field: nil stays nil, 0 stays 0.
func floatPtr(v any) *float64 {
	switch n := v.(type) {
	case int:
		f := float64(n)
		return &f
	case float64:
		return &n
	}
	return nil
}

// scalarString renders a scalar value the way it appeared in the source
// (constant values are documented literals, never interpreted).
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}
