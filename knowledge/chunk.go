package knowledge

import "strings"

// splitSentenceChunks splits content into chunks no larger than limit
// characters, breaking only at sentence boundaries. Content at or under
// the limit comes back as a single chunk. A single sentence longer than
// the limit becomes its own oversized chunk rather than being cut
// mid-sentence.
func splitSentenceChunks(content string, limit int) []string {
	if limit <= 0 || len(content) <= limit {
		return []string{content}
	}

	sentences := splitSentences(content)

	var chunks []string
	var b strings.Builder
	for _, sentence := range sentences {
		if b.Len() > 0 && b.Len()+len(sentence)+1 > limit {
			chunks = append(chunks, strings.TrimSpace(b.String()))
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	if b.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(b.String()))
	}
	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}

// splitSentences cuts text after '.', '!', '?' or newlines, keeping the
// terminator with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
