package summarize

import "strings"

// ChunkText splits text into chunks of at most chunkSize bytes, breaking
// only on ". " sentence boundaries. A single sentence longer than the
// budget becomes its own oversized chunk rather than being cut mid-sentence.
// Concatenating the chunks reconstructs the input exactly.
func ChunkText(text string, chunkSize int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	// SplitAfter keeps the ". " separator on each sentence, so joining the
	// chunks back together loses nothing.
	sentences := strings.SplitAfter(text, ". ")

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence) > chunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
