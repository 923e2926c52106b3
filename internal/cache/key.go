package cache

import (
	"encoding/json"

	"github.com/Maxwell0339/paper-cli/internal/util"
)

// KeyParams are the inputs that determine whether two summarization
// requests are equivalent. Any single change to any field must produce
// a different cache key.
type KeyParams struct {
	DocHash      string
	Model        string
	SystemPrompt string
	MaxChars     int
	ChunkChars   int
	Profile      string
}

// keyFingerprint is the canonical serialization of KeyParams. Fields
// are declared in sorted JSON-name order so the marshaled form is a
// stable sorted-field document.
type keyFingerprint struct {
	ChunkChars   int    `json:"chunk_chars"`
	DocHash      string `json:"doc_hash"`
	MaxChars     int    `json:"max_chars"`
	Model        string `json:"model"`
	Profile      string `json:"profile"`
	SystemPrompt string `json:"system_prompt"`
}

// BuildKey derives the deterministic cache key for the given
// parameters: the SHA-256 digest of their canonical serialization.
func BuildKey(p KeyParams) string {
	canonical, err := json.Marshal(keyFingerprint{
		ChunkChars:   p.ChunkChars,
		DocHash:      p.DocHash,
		MaxChars:     p.MaxChars,
		Model:        p.Model,
		Profile:      p.Profile,
		SystemPrompt: p.SystemPrompt,
	})
	if err != nil {
		// Marshaling a flat struct of strings and ints cannot fail.
		panic(err)
	}
	return util.SHA256Hex(canonical)
}
