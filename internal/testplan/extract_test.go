package testplan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `<jmeterTestPlan version="1.2" properties="5.0">
  <hashTree>
    <TestPlan guiclass="TestPlanGui" testclass="TestPlan" testname="Test Plan"/>
    <hashTree/>
  </hashTree>
</jmeterTestPlan>`

func fenced(lang, body string) string {
	return "```" + lang + "\n" + body + "\n```"
}

// canonical is what Extract produces for a plan without a prologue: the
// standard declaration is prepended.
func canonical(plan string) string {
	return xmlDeclaration + "\n" + plan
}

func TestExtract_FencedBlock(t *testing.T) {
	t.Parallel()

	text := "Here is your plan:\n\n" + fenced("xml", samplePlan) + "\n\nLoad it in JMeter."

	got, ok := Extract(text)
	require.True(t, ok)
	assert.Equal(t, canonical(samplePlan), got)
}

func TestExtract_FencedBlockWithoutLanguageTag(t *testing.T) {
	t.Parallel()

	got, ok := Extract(fenced("", samplePlan))
	require.True(t, ok)
	assert.Equal(t, canonical(samplePlan), got)
}

func TestExtract_FencedBlockKeepsExistingDeclaration(t *testing.T) {
	t.Parallel()

	got, ok := Extract(fenced("xml", canonical(samplePlan)))
	require.True(t, ok)
	assert.Equal(t, canonical(samplePlan), got)
	assert.Equal(t, 1, strings.Count(got, "<?xml"))
}

func TestExtract_LanguageTagCaseInsensitive(t *testing.T) {
	t.Parallel()

	got, ok := Extract(fenced("XML", samplePlan))
	require.True(t, ok)
	assert.Equal(t, canonical(samplePlan), got)
}

func TestExtract_SkipsBlocksWithoutRootTag(t *testing.T) {
	t.Parallel()

	text := "First a snippet:\n" + fenced("xml", "<hashTree/>") +
		"\nand then the plan:\n" + fenced("xml", samplePlan)

	got, ok := Extract(text)
	require.True(t, ok)
	assert.Equal(t, canonical(samplePlan), got, "first qualifying block wins, not first block overall")
}

func TestExtract_OnlyBlockWithoutRootTagIsNotReturned(t *testing.T) {
	t.Parallel()

	// A lone fenced block without the root tag is skipped; no raw span
	// exists either, so nothing is found.
	_, ok := Extract("Snippet:\n" + fenced("xml", "<hashTree/>"))
	assert.False(t, ok)
}

func TestExtract_RawInlinePlanGetsDeclaration(t *testing.T) {
	t.Parallel()

	text := "The plan is " + samplePlan + " and that is all."

	got, ok := Extract(text)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, got, samplePlan)
}

func TestExtract_RawInlinePlanKeepsExistingDeclaration(t *testing.T) {
	t.Parallel()

	text := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + samplePlan

	got, ok := Extract(text)
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(got, "<?xml"))
}

func TestExtract_NestedHashTrees(t *testing.T) {
	t.Parallel()

	nested := `<jmeterTestPlan version="1.2"><hashTree><hashTree><hashTree/></hashTree></hashTree></jmeterTestPlan>`

	got, ok := Extract("plan: " + nested)
	require.True(t, ok)
	assert.Contains(t, got, nested, "span must include the full nested structure")
}

func TestExtract_EmptyInputs(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t\n"} {
		_, ok := Extract(text)
		assert.False(t, ok, "input %q", text)
	}
}

func TestExtract_NoMarkup(t *testing.T) {
	t.Parallel()

	_, ok := Extract("No markup here.")
	assert.False(t, ok)
}

// Concrete scenario from the plan-generation flow: a fenced response with
// prose on both sides.
func TestExtract_TypicalAssistantResponse(t *testing.T) {
	t.Parallel()

	inner := `<jmeterTestPlan version="1.2"><hashTree><hashTree/></hashTree></jmeterTestPlan>`
	text := "Here:\n```xml\n" + inner + "\n```\nDone."

	got, ok := Extract(text)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(got, inner), "inner content returned intact")
	assert.True(t, strings.HasPrefix(got, xmlDeclaration))
	assert.True(t, IsPlausible(got))
}

// Extraction is idempotent: re-extracting an extracted plan yields the
// same text.
func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	first, ok := Extract(fenced("xml", samplePlan))
	require.True(t, ok)

	second, ok := Extract(first)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestIsPlausible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"complete plan", samplePlan, true},
		{"empty", "", false},
		{"blank", "   \n ", false},
		{"missing root open", "<hashTree></hashTree></jmeterTestPlan>", false},
		{"missing root close", "<jmeterTestPlan><hashTree>", false},
		{"missing container", "<jmeterTestPlan></jmeterTestPlan>", false},
		{"plain prose", "not a plan at all", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsPlausible(tt.text))
		})
	}
}

func TestContainsTestPlan(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsTestPlan(fenced("xml", samplePlan)))
	assert.False(t, ContainsTestPlan("nothing to see"))
}
