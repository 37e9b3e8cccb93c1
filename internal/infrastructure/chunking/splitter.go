package chunking

import "strings"

// Splitter breaks document text into paragraph-level chunks on blank-line
// boundaries. Chunks at or below MinChunkChars after trimming are noise
// (headings, page markers, stray lines) and are discarded.
type Splitter struct {
	MinChunkChars int
}

func NewSplitter(minChunkChars int) *Splitter {
	if minChunkChars <= 0 {
		minChunkChars = 50
	}
	return &Splitter{MinChunkChars: minChunkChars}
}

func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(normalized, "\n\n")

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		chunk := strings.TrimSpace(part)
		if len(chunk) <= s.MinChunkChars {
			continue
		}
		out = append(out, chunk)
	}
	return out
}
