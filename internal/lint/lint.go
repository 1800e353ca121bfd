// Package lint checks generated reference pages: front matter shape, the
// preservation marker, and the Markdown in the hand-authored body.
package lint

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/secondlife/create/internal/frontmatter"
	"github.com/secondlife/create/internal/pages"
)

// Severity of a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding on one page.
type Issue struct {
	Path     string
	Severity Severity
	Rule     string
	Message  string
}

// Result aggregates findings over a lint walk.
type Result struct {
	Checked int
	Issues  []Issue
}

// Errors returns the number of error-severity issues.
func (r *Result) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Run lints every generated page under root.
func Run(root string) (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".mdx") {
			return nil
		}
		res.Checked++
		res.Issues = append(res.Issues, checkFile(path)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func checkFile(path string) []Issue {
	var issues []Issue

	content, err := os.ReadFile(path)
	if err != nil {
		return []Issue{{Path: path, Severity: SeverityError, Rule: "read", Message: err.Error()}}
	}

	fm, body, had, err := frontmatter.Split(content)
	if err != nil {
		issues = append(issues, Issue{Path: path, Severity: SeverityError, Rule: "frontmatter", Message: err.Error()})
		return issues
	}
	if !had {
		issues = append(issues, Issue{Path: path, Severity: SeverityError, Rule: "frontmatter", Message: "missing front matter block"})
	} else {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			issues = append(issues, Issue{Path: path, Severity: SeverityError, Rule: "frontmatter", Message: fmt.Sprintf("invalid YAML: %v", err)})
		} else if title, _ := fields["title"].(string); title == "" {
			issues = append(issues, Issue{Path: path, Severity: SeverityError, Rule: "frontmatter", Message: "missing title"})
		}
	}

	switch n := bytes.Count(content, []byte(pages.Marker)); n {
	case 0:
		issues = append(issues, Issue{Path: path, Severity: SeverityError, Rule: "marker", Message: "preservation marker missing; next regeneration will replace the body"})
	case 1:
		// expected
	default:
		issues = append(issues, Issue{Path: path, Severity: SeverityWarning, Rule: "marker", Message: fmt.Sprintf("marker appears %d times", n)})
	}

	if preserved, found := pages.SplitPreserved(content); found {
		issues = append(issues, checkBody(path, preserved)...)
	} else {
		issues = append(issues, checkBody(path, body)...)
	}
	return issues
}

// checkBody parses the hand-authored region as Markdown and flags link nodes
// with empty destinations.
func checkBody(path string, body []byte) []Issue {
	var issues []Issue
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			if len(node.Destination) == 0 {
				issues = append(issues, Issue{Path: path, Severity: SeverityWarning, Rule: "links", Message: "link with empty destination"})
			}
		case *gmast.Image:
			if len(node.Destination) == 0 {
				issues = append(issues, Issue{Path: path, Severity: SeverityWarning, Rule: "links", Message: "image with empty destination"})
			}
		}
		return gmast.WalkContinue, nil
	})
	return issues
}
