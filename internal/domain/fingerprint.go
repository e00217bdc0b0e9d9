package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the content-addressed cache key for one evaluation.
// The key covers the document text, both stage prompts, and the model
// identity; changing any component changes the key. The digest is
// cryptographic and stable across processes, so records cached by one
// run are valid for every later run with the same inputs.
func Fingerprint(documentText, stage1Prompt, stage2Prompt, modelID string) string {
	parts := []string{
		md5Hex(documentText),
		Prompt{Text: stage1Prompt}.Hash(),
		Prompt{Text: stage2Prompt}.Hash(),
		modelID,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "::")))
	return hex.EncodeToString(sum[:])
}
