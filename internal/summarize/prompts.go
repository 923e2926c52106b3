package summarize

import "fmt"

// SummaryInstruction is the structured-summary instruction sent with
// every final summarization request.
const SummaryInstruction = `Read the paper content and produce structured Markdown. The summary must contain the following sections:
1. Paper title identification
2. Core contributions (state the background and what problem is solved)
3. Methodology (model architecture, algorithm flow, novel ideas)
4. Experimental results (datasets, metrics, notable comparisons)
5. Assessment (strengths, limitations, possible improvements)
Requirements:
- Keep the language concise and rigorous, preferring verifiable information.
- Do not fabricate data; if the source omits something, state "not given in the source".
- Render every formula in LaTeX syntax, inline or on its own line.`

// singleDocPrompt builds the user prompt for a document that fits in
// one segment.
func singleDocPrompt(text string) string {
	return fmt.Sprintf("%s\n\nPaper content:\n%s", SummaryInstruction, text)
}

// segmentPrompt builds the map-phase prompt for segment idx of total.
// Indexes are 1-based.
func segmentPrompt(idx, total int, segment string) string {
	return fmt.Sprintf(
		"You are reading one portion of a paper (part %d of %d). "+
			"Output only the key points of this portion as a Markdown list, "+
			"to be combined into a global summary later. Do not invent missing content."+
			"\n\nPaper fragment:\n%s",
		idx, total, segment,
	)
}

// mergePrompt builds the reduce-phase prompt from the labeled partial
// summaries.
func mergePrompt(merged string) string {
	return fmt.Sprintf(
		"%s\n\nBelow are key points from each portion of the same paper. "+
			"Integrate them globally and output the final structured Markdown:\n\n%s",
		SummaryInstruction, merged,
	)
}

// sectionLabel labels a partial summary for the merge input. Indexes
// are 1-based.
func sectionLabel(idx int, partial string) string {
	return fmt.Sprintf("### Segment %d\n%s", idx, partial)
}
