package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug_CaseFolds(t *testing.T) {
	assert.Equal(t, "llsay", Slug("llSay"))
	assert.Equal(t, "agent_flying", Slug("AGENT_FLYING"))
	assert.Equal(t, Slug("LLSAY"), Slug("llsay"))
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "LSLFunction", componentName(KindFunction, VariantLSL))
	assert.Equal(t, "SluaFunction", componentName(KindFunction, VariantSlua))
	assert.Equal(t, "LSLConstant", componentName(KindConstant, VariantLSL))
	assert.Equal(t, "SluaEvent", componentName(KindEvent, VariantSlua))
}

func TestCompose_HeaderShape(t *testing.T) {
	doc, err := Compose("AGENT_FLYING", "Agent is flying", KindConstant, VariantSlua, []byte(DefaultBody))
	require.NoError(t, err)
	s := string(doc)

	assert.True(t, strings.HasPrefix(s, "---\ntitle: AGENT_FLYING\ndescription: Agent is flying\n---\n"), s)
	assert.Contains(t, s, `import SluaConstant from "@site/src/components/SluaConstant";`)
	assert.Contains(t, s, `<SluaConstant name="AGENT_FLYING" />`)
	assert.Contains(t, s, Marker)
	assert.Contains(t, s, "## Examples")
}

func TestCompose_OmitsEmptyDescription(t *testing.T) {
	doc, err := Compose("touch_start", "", KindEvent, VariantLSL, []byte(DefaultBody))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "description:")
}

func TestCompose_SplitPreserved_RoundTrip(t *testing.T) {
	body := []byte("\n\nUser wrote this.\n")
	doc, err := Compose("llSay", "Says text", KindFunction, VariantSlua, body)
	require.NoError(t, err)

	preserved, found := SplitPreserved(doc)
	require.True(t, found)
	assert.Equal(t, body, preserved)
}

func TestSplitPreserved_MissingMarker(t *testing.T) {
	_, found := SplitPreserved([]byte("# freeform file without a sentinel\n"))
	assert.False(t, found)

	_, found = SplitPreserved(nil)
	assert.False(t, found)
}

func TestKindPlural(t *testing.T) {
	assert.Equal(t, "constants", KindConstant.Plural())
	assert.Equal(t, "functions", KindFunction.Plural())
	assert.Equal(t, "events", KindEvent.Plural())
}
