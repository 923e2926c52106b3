// Package chunk splits large document texts into bounded-size segments
// along paragraph boundaries for map-reduce summarization.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Separator joins paragraphs inside a segment and is the boundary the
// splitter packs against. Its length counts toward the segment limit.
const Separator = "\n\n"

// Split divides text into segments of at most limit characters.
//
// Text at or under the limit comes back as a single segment. Longer text
// is split on blank-line paragraph boundaries, greedily packing
// consecutive paragraphs while they fit. A single paragraph longer than
// the limit is hard-split into consecutive limit-sized slices, cut back
// to rune boundaries, with no semantic awareness.
//
// Concatenating the segments in order, restoring the separators removed
// between packed paragraphs, reproduces the input exactly.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = 1
	}
	if len(text) <= limit {
		return []string{text}
	}

	var segments []string
	var current []string
	currentLen := 0

	for _, paragraph := range strings.Split(text, Separator) {
		paraLen := len(paragraph)

		if currentLen+paraLen+len(Separator) <= limit {
			current = append(current, paragraph)
			currentLen += paraLen + len(Separator)
			continue
		}

		if len(current) > 0 {
			segments = append(segments, strings.Join(current, Separator))
		}

		if paraLen > limit {
			for i := 0; i < paraLen; {
				end := i + limit
				if end >= paraLen {
					end = paraLen
				} else {
					// Back off to a rune boundary so a multi-byte
					// character is never split across segments.
					for end > i && !utf8.RuneStart(paragraph[end]) {
						end--
					}
					if end == i {
						end = i + limit
					}
				}
				segments = append(segments, paragraph[i:end])
				i = end
			}
			current = nil
			currentLen = 0
		} else {
			current = []string{paragraph}
			currentLen = paraLen
		}
	}

	if len(current) > 0 {
		segments = append(segments, strings.Join(current, Separator))
	}

	return segments
}
