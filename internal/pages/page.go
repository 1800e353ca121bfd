// Package pages turns parsed definitions into reference documents, one file
// per (entry, language variant) pair. Each file has a machine-owned header
// that is rewritten on every run and a hand-authored body preserved verbatim
// below a marker line.
package pages

import (
	"bytes"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/secondlife/create/internal/frontmatter"
)

// Kind is the reference category an entry belongs to.
type Kind string

const (
	KindConstant Kind = "constant"
	KindFunction Kind = "function"
	KindEvent    Kind = "event"
)

// Plural returns the output directory name for the kind.
func (k Kind) Plural() string { return string(k) + "s" }

// Variant is a documented language variant of the scripting runtime.
type Variant string

const (
	VariantLSL  Variant = "lsl"
	VariantSlua Variant = "slua"
)

// Variants lists every generated language variant.
var Variants = []Variant{VariantLSL, VariantSlua}

// Marker separates the machine-owned header from the preserved body. The
// sentinel is versioned; regeneration rewrites everything above it and keeps
// everything after it byte for byte.
const Marker = "{/* createdocs:keep:v1 -- hand-written content below this line is preserved */}"

// DefaultBody is the placeholder appended when a page is generated for the
// first time or its marker went missing.
const DefaultBody = `

## Examples

## Notes

## See also
`

// Slug returns the case-normalized filename stem for an entry name.
// Unicode case folding keeps distinct-but-case-equal names collapsing the
// same way on every platform.
func Slug(name string) string {
	return cases.Fold().String(name)
}

// componentName returns the site component rendering reference details for
// the (kind, variant) pair, e.g. SluaFunction or LSLConstant.
func componentName(kind Kind, variant Variant) string {
	var prefix string
	switch variant {
	case VariantLSL:
		prefix = "LSL"
	case VariantSlua:
		prefix = "Slua"
	default:
		prefix = string(variant)
	}
	switch kind {
	case KindConstant:
		return prefix + "Constant"
	case KindFunction:
		return prefix + "Function"
	default:
		return prefix + "Event"
	}
}

type pageMeta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// Compose builds the full page: front matter, component import and
// invocation, the marker line, then the preserved (or default) body.
//
// Given identical inputs the output is byte-identical, which is what makes
// regeneration idempotent.
func Compose(name, tooltip string, kind Kind, variant Variant, body []byte) ([]byte, error) {
	comp := componentName(kind, variant)

	var b bytes.Buffer
	b.WriteString("\n")
	fmt.Fprintf(&b, "import %s from \"@site/src/components/%s\";\n", comp, comp)
	b.WriteString("\n")
	fmt.Fprintf(&b, "<%s name=%q />\n", comp, name)
	b.WriteString("\n")
	b.WriteString(Marker)
	b.Write(body)

	return frontmatter.Compose(pageMeta{Title: name, Description: tooltip}, b.Bytes())
}

// SplitPreserved locates the marker in an existing page and returns
// everything after it. found is false when the marker is absent (including
// for empty content); callers then fall back to DefaultBody.
func SplitPreserved(existing []byte) (preserved []byte, found bool) {
	idx := bytes.Index(existing, []byte(Marker))
	if idx < 0 {
		return nil, false
	}
	return existing[idx+len(Marker):], true
}
