package commands

import (
	"fmt"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Dir string `arg:"" optional:"" help:"Generated pages root" default:"docs/reference"`
}

func (l *LintCmd) Run(_ *Global, _ *CLI) error {
	res, err := lint.Run(l.Dir)
	if err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "walk generated pages")
	}

	for _, issue := range res.Issues {
		fmt.Printf("%s: %s: [%s] %s\n", issue.Severity, issue.Path, issue.Rule, issue.Message)
	}
	fmt.Printf("checked %d page(s), %d issue(s)\n", res.Checked, len(res.Issues))

	if n := res.Errors(); n > 0 {
		return pipeerr.New(pipeerr.CategoryGenerate, pipeerr.SeverityError,
			fmt.Sprintf("%d lint error(s)", n))
	}
	return nil
}
