package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	pipeerr "github.com/secondlife/create/internal/errors"
)

// defaultRepoPath is the definitions file location inside an upstream
// repository when the source URL carries no fragment.
const defaultRepoPath = "lsl_definitions.yaml"

// splitGitSource splits `https://host/org/repo.git#path/in/repo` into the
// clone URL and the in-repo file path.
func splitGitSource(url string) (repoURL, inRepo string) {
	repoURL, inRepo, _ = strings.Cut(url, "#")
	if inRepo == "" {
		inRepo = defaultRepoPath
	}
	return repoURL, inRepo
}

// fetchGit shallow-clones the source repository into a temp dir and reads the
// definitions file out of the working tree.
func (f *Fetcher) fetchGit(ctx context.Context, url string) ([]byte, error) {
	repoURL, inRepo := splitGitSource(url)

	tmp, err := os.MkdirTemp("", "create-defs-*")
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "create clone workspace")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	_, err = git.PlainCloneContext(ctx, tmp, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityFatal, "clone definitions repository").
			WithContext("url", repoURL)
	}

	data, err := os.ReadFile(filepath.Join(tmp, filepath.FromSlash(inRepo)))
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityFatal, "definitions file not found in repository").
			WithContext("url", repoURL).
			WithContext("path", inRepo)
	}
	return data, nil
}
