package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcdesk/deckeval/internal/domain"
)

func TestBuildStage1Prompt(t *testing.T) {
	prompt := BuildStage1Prompt("the pitch text")

	assert.Contains(t, prompt, "# ROLE (FIXED)")
	assert.Contains(t, prompt, "JSON schema hints:")
	assert.Contains(t, prompt, "the pitch text")
	assert.True(t, strings.HasSuffix(prompt, "Return JSON only."))
	assert.NotContains(t, prompt, "STAGE 1 JSON:")
}

func TestBuildStage2PromptEmbedsStage1(t *testing.T) {
	stage1 := domain.Stage1Result{
		CompanyName: "Acme",
		LogicScore:  85,
		PassGate:    true,
	}
	prompt, err := BuildStage2Prompt("the pitch text", stage1)
	require.NoError(t, err)

	assert.Contains(t, prompt, "STAGE 1 JSON:")
	assert.Contains(t, prompt, `"company_name":"Acme"`)
	assert.Contains(t, prompt, "stage_label")
	assert.Contains(t, prompt, "the pitch text")
}

func TestPromptTextsAreStable(t *testing.T) {
	// Prompt hashes feed the cache fingerprint, so the same build must
	// always produce identical text.
	assert.Equal(t, Stage1Prompt().Text, Stage1Prompt().Text)
	assert.Equal(t, Stage1Prompt().Hash(), Stage1Prompt().Hash())
	assert.NotEmpty(t, Stage2Prompt().Text)

	// Every rubric item is pinned in the schema hint.
	for _, item := range domain.RubricItems {
		assert.Contains(t, stage1SchemaHint, item)
	}
}
