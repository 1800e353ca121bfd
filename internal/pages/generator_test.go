package pages

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondlife/create/internal/defs"
	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/metrics"
)

func testDoc() *defs.Definitions {
	energy := 10.0
	sleep := 0.0
	return &defs.Definitions{
		SyntaxVersion: 2,
		Constants: map[string]defs.Constant{
			"AGENT_FLYING": {Name: "AGENT_FLYING", Tooltip: "Agent is flying", Type: defs.TypeInteger, Value: "1"},
		},
		Functions: map[string]defs.Function{
			"llSay":            {Name: "llSay", Tooltip: "Says text", ReturnType: "void", Energy: &energy, Sleep: &sleep},
			"llSecretInternal": {Name: "llSecretInternal", Flags: defs.Flags{Private: true}},
			"llLegacyOnly":     {Name: "llLegacyOnly", Tooltip: "Old behavior", Flags: defs.Flags{LSLOnly: true}},
		},
		Events: map[string]defs.Event{
			"touch_start": {Name: "touch_start", Tooltip: "Touch begins"},
		},
	}
}

func generate(t *testing.T, root string, doc *defs.Definitions) *Report {
	t.Helper()
	g := NewGenerator(Options{Root: root, Concurrency: 4})
	report, err := g.Generate(context.Background(), doc)
	require.NoError(t, err)
	return report
}

func TestGenerate_ProducesBothVariants(t *testing.T) {
	root := t.TempDir()
	report := generate(t, root, testDoc())
	require.Zero(t, report.Failed())

	for _, variant := range []string{"lsl", "slua"} {
		path := filepath.Join(root, variant, "constants", "agent_flying.mdx")
		content, err := os.ReadFile(path)
		require.NoError(t, err, path)
		s := string(content)
		assert.Contains(t, s, "title: AGENT_FLYING")
		assert.Contains(t, s, "description: Agent is flying")
		assert.Contains(t, s, `name="AGENT_FLYING"`)
	}
}

func TestGenerate_PrivateEntriesAbsentFromBothVariants(t *testing.T) {
	root := t.TempDir()
	generate(t, root, testDoc())

	for _, variant := range []string{"lsl", "slua"} {
		_, err := os.Stat(filepath.Join(root, variant, "functions", "llsecretinternal.mdx"))
		assert.True(t, os.IsNotExist(err))
	}
}

func TestGenerate_VariantExclusivity(t *testing.T) {
	root := t.TempDir()
	generate(t, root, testDoc())

	_, err := os.Stat(filepath.Join(root, "lsl", "functions", "lllegacyonly.mdx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "slua", "functions", "lllegacyonly.mdx"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_Idempotent(t *testing.T) {
	root := t.TempDir()
	doc := testDoc()

	first := generate(t, root, doc)
	assert.Zero(t, first.Count(KindConstant, metrics.ActionUnchanged))

	path := filepath.Join(root, "slua", "functions", "llsay.mdx")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	second := generate(t, root, doc)
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	// Second run rewrites nothing.
	assert.Zero(t, second.Count(KindFunction, metrics.ActionWritten))
	assert.Equal(t, first.Count(KindFunction, metrics.ActionWritten), second.Count(KindFunction, metrics.ActionUnchanged))
}

func TestGenerate_PreservesUserBodyAcrossTooltipChange(t *testing.T) {
	root := t.TempDir()
	doc := testDoc()
	generate(t, root, doc)

	path := filepath.Join(root, "slua", "functions", "llsay.mdx")
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	// Simulate a hand-written body below the marker.
	userBody := "\n\nChannel 0 is public chat.\n"
	edited := strings.SplitN(string(content), Marker, 2)[0] + Marker + userBody
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	fn := doc.Functions["llSay"]
	fn.Tooltip = "Says text on the given channel"
	doc.Functions["llSay"] = fn
	generate(t, root, doc)

	updated, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(updated)
	assert.Contains(t, s, "description: Says text on the given channel")
	assert.True(t, strings.HasSuffix(s, userBody))
	assert.NotContains(t, s, "## Examples")
}

func TestGenerate_MissingMarkerFallsBackToDefaultBody(t *testing.T) {
	root := t.TempDir()
	doc := testDoc()
	generate(t, root, doc)

	path := filepath.Join(root, "lsl", "events", "touch_start.mdx")
	require.NoError(t, os.WriteFile(path, []byte("mangled file without sentinel\n"), 0o644))

	report := generate(t, root, doc)
	require.Zero(t, report.Failed())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), Marker)
	assert.Contains(t, string(content), "## Examples")
}

func TestGenerate_CollisionFailsFast(t *testing.T) {
	doc := &defs.Definitions{
		Constants: map[string]defs.Constant{
			"AGENT_FLYING": {Name: "AGENT_FLYING", Type: defs.TypeInteger, Value: "1"},
			"agent_flying": {Name: "agent_flying", Type: defs.TypeInteger, Value: "1"},
		},
		Functions: map[string]defs.Function{},
		Events:    map[string]defs.Event{},
	}

	root := t.TempDir()
	g := NewGenerator(Options{Root: root})
	_, err := g.Generate(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, pipeerr.IsCategory(err, pipeerr.CategoryGenerate))

	// Fail fast: nothing was written.
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestGenerate_ReportCounts(t *testing.T) {
	report := generate(t, t.TempDir(), testDoc())

	// 1 constant and 1 event in both variants.
	assert.Equal(t, 2, report.Count(KindConstant, metrics.ActionWritten))
	assert.Equal(t, 2, report.Count(KindEvent, metrics.ActionWritten))
	// llSay in both variants + llLegacyOnly in lsl only; llSecretInternal skipped.
	assert.Equal(t, 3, report.Count(KindFunction, metrics.ActionWritten))
	assert.NotEmpty(t, report.RunID)
}

func TestGenerate_ReportsSkippedEntries(t *testing.T) {
	report := generate(t, t.TempDir(), testDoc())

	// llSecretInternal (private) skipped in both variants, llLegacyOnly
	// skipped in slua only.
	assert.Equal(t, 3, report.Count(KindFunction, metrics.ActionSkipped))
	assert.Zero(t, report.Count(KindConstant, metrics.ActionSkipped))
	assert.Zero(t, report.Count(KindEvent, metrics.ActionSkipped))

	var skipped []string
	for _, p := range report.Pages {
		if p.Action == metrics.ActionSkipped {
			skipped = append(skipped, string(p.Variant)+"/"+p.Name)
			assert.Empty(t, p.Path)
		}
	}
	assert.ElementsMatch(t, []string{
		"lsl/llSecretInternal",
		"slua/llSecretInternal",
		"slua/llLegacyOnly",
	}, skipped)
}
