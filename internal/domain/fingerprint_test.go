package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFingerprint_Deterministic verifies that the fingerprint is a pure
// function of its inputs: identical inputs always produce the identical
// digest, across repeated calls.
func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("deck text", "p1", "p2", "gemini-2.5-flash")
	b := Fingerprint("deck text", "p1", "p2", "gemini-2.5-flash")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "fingerprint should be a hex SHA-256 digest")
}

// TestFingerprint_SensitiveToEveryInput mutates one input at a time and
// asserts the digest changes. A fingerprint blind to any component
// would serve stale records after a prompt or model change.
func TestFingerprint_SensitiveToEveryInput(t *testing.T) {
	base := Fingerprint("deck text", "p1", "p2", "gemini-2.5-flash")

	tests := []struct {
		name string
		got  string
	}{
		{"document text", Fingerprint("deck text v2", "p1", "p2", "gemini-2.5-flash")},
		{"stage1 prompt", Fingerprint("deck text", "p1 edited", "p2", "gemini-2.5-flash")},
		{"stage2 prompt", Fingerprint("deck text", "p1", "p2 edited", "gemini-2.5-flash")},
		{"model identity", Fingerprint("deck text", "p1", "p2", "gemini-3.0-pro")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.got)
		})
	}
}

// TestPrompt_HashChangesWithText verifies prompt identity is content
// addressed.
func TestPrompt_HashChangesWithText(t *testing.T) {
	p1 := Prompt{Name: "stage1", Text: "judge strictly"}
	p2 := Prompt{Name: "stage1", Text: "judge strictly."}

	assert.NotEqual(t, p1.Hash(), p2.Hash())
	assert.Equal(t, p1.Hash(), Prompt{Name: "other", Text: "judge strictly"}.Hash(),
		"hash depends on text only, not the slot name")
}
