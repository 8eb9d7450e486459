package chunker

import (
	"strings"

	"ragmail/internal/domain"
)

const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 100
)

// boundaries are tried from largest to smallest: paragraph, line, sentence, word.
// When none fits the window the chunk is cut at the size limit.
var boundaries = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// RecursiveChunker splits text into chunks of at most size runes. Consecutive chunks share
// exactly overlap runes, so every chunk is a substring of the source text.
type RecursiveChunker struct {
	size    int
	overlap int
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &RecursiveChunker{size: size, overlap: overlap}
}

func (c *RecursiveChunker) Size() int    { return c.size }
func (c *RecursiveChunker) Overlap() int { return c.overlap }

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Text) == "" {
		return nil, nil
	}
	text := []rune(document.Text)
	var chunks []domain.Chunk
	start := 0
	for {
		if len(text)-start <= c.size {
			chunks = append(chunks, domain.Chunk{Index: len(chunks), Content: string(text[start:])})
			return chunks, nil
		}
		end := c.cut(text, start)
		chunks = append(chunks, domain.Chunk{Index: len(chunks), Content: string(text[start:end])})
		start = end - c.overlap
	}
}

// cut picks the end of the chunk starting at start. The result lies in (start+overlap, start+size].
func (c *RecursiveChunker) cut(text []rune, start int) int {
	limit := start + c.size
	minEnd := start + c.overlap + 1
	for _, sep := range boundaries {
		if end := lastBoundary(text, sep, minEnd, limit); end > 0 {
			return end
		}
	}
	return limit
}

// lastBoundary returns the largest index e in [minEnd, limit] such that sep ends right before e,
// or 0 when there is none.
func lastBoundary(text, sep []rune, minEnd, limit int) int {
	for e := limit; e >= minEnd && e-len(sep) >= 0; e-- {
		if hasSuffixAt(text, sep, e) {
			return e
		}
	}
	return 0
}

func hasSuffixAt(text, sep []rune, end int) bool {
	off := end - len(sep)
	for i, r := range sep {
		if text[off+i] != r {
			return false
		}
	}
	return true
}
