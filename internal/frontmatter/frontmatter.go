// Package frontmatter reads and writes `---`-delimited YAML front matter on
// generated reference pages.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

var delimiter = []byte("---\n")

// Split separates YAML front matter (`---` delimited) from the page body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	if !bytes.HasPrefix(content, delimiter) {
		return nil, content, false, nil
	}

	rest := content[len(delimiter):]
	if bytes.HasPrefix(rest, delimiter) {
		// Empty front matter block.
		return []byte{}, rest[len(delimiter):], true, nil
	}

	closeSeq := []byte("\n---\n")
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+1], rest[idx+len(closeSeq):], true, nil
}

// Compose marshals meta as YAML front matter and prepends it to body.
//
// meta is typically a struct with yaml tags; struct field order keeps the
// serialized block deterministic, which regeneration idempotence relies on.
func Compose(meta any, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2*len(delimiter)+buf.Len()+len(body))
	out = append(out, delimiter...)
	out = append(out, buf.Bytes()...)
	out = append(out, delimiter...)
	out = append(out, body...)
	return out, nil
}

// ParseYAML parses raw front matter bytes (without delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(fm) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
