package pdfrag

import (
	"fmt"
	"strconv"
	"strings"
)

// pageRef renders the page numbers a chunk spans for use in prompts and
// raw responses.
func pageRef(pages []int) string {
	if len(pages) == 0 {
		return "No page info"
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return "Pages " + strings.Join(parts, ", ")
}

// formatChunksRaw renders retrieved chunks for raw (non-synthesized) mode.
func formatChunksRaw(chunks []ScoredChunk, withFilename bool) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		ref := pageRef(chunk.Pages)
		if withFilename && chunk.Filename != "" {
			ref = fmt.Sprintf("%s, PDF: %s", ref, chunk.Filename)
		}
		fmt.Fprintf(&sb, "Chunk %d (Similarity: %.3f, %s):\n%s\n", i+1, chunk.Similarity, ref, chunk.Content)
	}
	return sb.String()
}

// buildDocContext renders retrieved chunks as the context block of a prompt.
func buildDocContext(chunks []ScoredChunk, withFilename bool) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		ref := pageRef(chunk.Pages)
		if withFilename && chunk.Filename != "" {
			ref = fmt.Sprintf("%s, PDF: %s", ref, chunk.Filename)
		}
		fmt.Fprintf(&sb, "Document %d (%s):\n%s\n\n", i+1, ref, chunk.Content)
	}
	return sb.String()
}

// trimToBudget drops trailing chunks until the rendered context fits the
// token budget. At least one chunk is always kept. A nil counter or
// non-positive budget disables trimming.
func trimToBudget(chunks []ScoredChunk, budget int, counter TokenCounter, withFilename bool) []ScoredChunk {
	if counter == nil || budget <= 0 {
		return chunks
	}
	for len(chunks) > 1 {
		if counter.Count(buildDocContext(chunks, withFilename)) <= budget {
			break
		}
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}

// answerPrompt assembles the synthesis prompt from conversation history,
// retrieved context, and the current question.
func answerPrompt(historyContext, docContext, question string) string {
	var sb strings.Builder
	if historyContext != "" {
		sb.WriteString("Conversation History:\n")
		sb.WriteString(historyContext)
		sb.WriteString("\n")
	}
	sb.WriteString("Retrieved Context:\n")
	sb.WriteString(docContext)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Current Question: %s\n", question)
	sb.WriteString("Provide a detailed answer based on the retrieved context and conversation history, referencing relevant page numbers and PDF filenames if applicable:\n")
	return sb.String()
}
