package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestCLI_Defaults(t *testing.T) {
	cli, ctx := parseCLI(t, "generate")
	assert.Equal(t, "generate", ctx.Command())
	assert.Equal(t, "data/lsl_definitions.yaml", cli.Defs)
	assert.Equal(t, "docs/reference", cli.Generate.Output)
	assert.Equal(t, 8, cli.Generate.Concurrency)
	assert.False(t, cli.Verbose)
}

func TestCLI_FetchAcceptsOptionalURL(t *testing.T) {
	cli, ctx := parseCLI(t, "fetch", "https://example.com/defs.yaml")
	assert.Equal(t, "fetch <url>", ctx.Command())
	assert.Equal(t, "https://example.com/defs.yaml", cli.Fetch.URL)

	_, ctx = parseCLI(t, "fetch")
	assert.Equal(t, "fetch", ctx.Command())
}

func TestCLI_WatchFlags(t *testing.T) {
	cli, _ := parseCLI(t, "watch", "--refresh-every", "1h", "--nats-url", "nats://localhost:4222", "--metrics-addr", ":9090")
	assert.Equal(t, "nats://localhost:4222", cli.Watch.NatsURL)
	assert.Equal(t, "createdocs.regenerated", cli.Watch.NatsSubject)
	assert.Equal(t, ":9090", cli.Watch.MetricsAddr)
	assert.NotZero(t, cli.Watch.RefreshEvery)
}

func TestGenerateCmd_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	defsPath := filepath.Join(dir, "lsl_definitions.yaml")
	src := `
llsd-lsl-syntax-version: 2
constants:
  AGENT_FLYING:
    type: integer
    value: 1
    tooltip: Agent is flying
functions:
  llSay:
    return: void
    energy: 10
    sleep: 0
    tooltip: Says text
events: {}
`
	require.NoError(t, os.WriteFile(defsPath, []byte(src), 0o644))

	output := filepath.Join(dir, "reference")
	cli := &CLI{Defs: defsPath}
	cmd := &GenerateCmd{
		Output:      output,
		Concurrency: 2,
		StateDB:     filepath.Join(dir, "state.db"),
	}
	require.NoError(t, cmd.Run(&Global{}, cli))

	for _, rel := range []string{
		"lsl/constants/agent_flying.mdx",
		"slua/constants/agent_flying.mdx",
		"lsl/functions/llsay.mdx",
		"slua/functions/llsay.mdx",
	} {
		_, err := os.Stat(filepath.Join(output, rel))
		assert.NoError(t, err, rel)
	}

	// Second run is a no-op over identical input.
	require.NoError(t, cmd.Run(&Global{}, cli))
}

func TestLintCmd_CleanOutput(t *testing.T) {
	dir := t.TempDir()
	defsPath := filepath.Join(dir, "defs.yaml")
	require.NoError(t, os.WriteFile(defsPath, []byte("constants: {}\nfunctions: {}\nevents: {}\n"), 0o644))

	output := filepath.Join(dir, "reference")
	require.NoError(t, os.MkdirAll(output, 0o755))

	gen := &GenerateCmd{Output: output, Concurrency: 1, NoHistory: true}
	require.NoError(t, gen.Run(&Global{}, &CLI{Defs: defsPath}))

	lintCmd := &LintCmd{Dir: output}
	require.NoError(t, lintCmd.Run(&Global{}, &CLI{}))
}
