package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ragmail/internal/domain"
)

func sampleText() string {
	var b strings.Builder
	for p := 0; p < 6; p++ {
		for s := 0; s < 5; s++ {
			b.WriteString("The quarterly report covers revenue, hiring and the roadmap for section ")
			b.WriteString(strings.Repeat("x", p+s))
			b.WriteString(". ")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// reassemble drops the shared prefix of every chunk after the first.
func reassemble(chunks []domain.Chunk, overlap int) string {
	var b strings.Builder
	for i, ch := range chunks {
		if i == 0 {
			b.WriteString(ch.Content)
			continue
		}
		b.WriteString(string([]rune(ch.Content)[overlap:]))
	}
	return b.String()
}

func TestRecursiveChunker_Empty(t *testing.T) {
	c := NewRecursiveChunker(400, 100)
	for _, text := range []string{"", "   \n\n\t "} {
		chunks, err := c.Chunk(domain.Document{Text: text})
		if err != nil {
			t.Fatalf("Chunk(%q): %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Chunk(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestRecursiveChunker_ShortDocumentIsOneChunk(t *testing.T) {
	c := NewRecursiveChunker(400, 100)
	chunks, err := c.Chunk(domain.Document{Text: "Hello there."})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "Hello there." {
		t.Fatalf("chunks = %+v", chunks)
	}
}

func TestRecursiveChunker_Properties(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		size, overlap int
	}{
		{"paragraphs", sampleText(), 400, 100},
		{"no separators", strings.Repeat("abcdefghij", 200), 400, 100},
		{"small window", sampleText(), 50, 10},
		{"no overlap", sampleText(), 120, 0},
		{"unicode", strings.Repeat("Grüße aus Köln, schöne Tage. ", 60), 100, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRecursiveChunker(tt.size, tt.overlap)
			chunks, err := c.Chunk(domain.Document{Text: tt.text})
			if err != nil {
				t.Fatalf("Chunk: %v", err)
			}
			if len(chunks) < 2 {
				t.Fatalf("expected several chunks, got %d", len(chunks))
			}
			for i, ch := range chunks {
				if ch.Index != i {
					t.Errorf("chunk %d has index %d", i, ch.Index)
				}
				if n := utf8.RuneCountInString(ch.Content); n > tt.size {
					t.Errorf("chunk %d length %d exceeds %d", i, n, tt.size)
				}
				if i == 0 {
					continue
				}
				prev := []rune(chunks[i-1].Content)
				cur := []rune(ch.Content)
				tail := string(prev[len(prev)-tt.overlap:])
				head := string(cur[:tt.overlap])
				if tail != head {
					t.Errorf("chunk %d overlap = %q, want %q", i, head, tail)
				}
			}
			if got := reassemble(chunks, tt.overlap); got != tt.text {
				t.Errorf("reassembled text differs from original:\n got %q\nwant %q", got, tt.text)
			}
		})
	}
}

func TestRecursiveChunker_PrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("word ", 30) // 150 runes
	text := para + "\n\n" + para + "\n\n" + para
	c := NewRecursiveChunker(400, 50)
	chunks, err := c.Chunk(domain.Document{Text: text})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if !strings.HasSuffix(chunks[0].Content, "\n\n") {
		t.Errorf("first chunk should end at a paragraph break, got %q", chunks[0].Content)
	}
}

func TestRecursiveChunker_OverlapClamped(t *testing.T) {
	c := NewRecursiveChunker(100, 100)
	if c.Overlap() >= c.Size() {
		t.Fatalf("overlap %d not clamped below size %d", c.Overlap(), c.Size())
	}
	c = NewRecursiveChunker(0, -3)
	if c.Size() != DefaultChunkSize || c.Overlap() != 0 {
		t.Errorf("defaults = (%d, %d)", c.Size(), c.Overlap())
	}
}

func TestSentenceChunker(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Chunk(domain.Document{Text: "One. Two! Three? Four."})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{"One. Two!", "Two! Three?", "Three? Four."}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i].Content != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Content, want[i])
		}
	}
}

func TestSentenceChunker_Empty(t *testing.T) {
	chunks, err := NewSentenceChunker(5, 1).Chunk(domain.Document{Text: "  "})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}
