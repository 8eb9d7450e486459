package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ragmail/internal/domain"
)

type fakeSearcher struct {
	query string
	k     int
}

func (f *fakeSearcher) Search(_ context.Context, text string, k int) ([]domain.SearchResult, error) {
	f.query, f.k = text, k
	return []domain.SearchResult{
		{Chunk: domain.Chunk{Index: 2, Content: "The deadline is Friday."}, Score: 0.9},
		{Chunk: domain.Chunk{Index: 0, Content: "Parking is free."}, Score: 0.1},
	}, nil
}

func testReview() Review {
	ctx := "Parking is free. The submission deadline is Friday."
	return Review{
		Thread:  domain.EmailThread{CurrentMessage: "When is the submission deadline?", FullThread: "On Mon X <a@b.com> wrote:", MarkerFound: true},
		Context: &ctx,
		Reply:   "It is Friday.",
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTabCyclesPanes(t *testing.T) {
	m := update(t, New(context.Background(), nil, testReview()), tea.WindowSizeMsg{Width: 80, Height: 30})
	want := []pane{paneContext, paneThread, paneSearch, paneReply}
	for _, p := range want {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.pane != p {
			t.Fatalf("pane = %d, want %d", m.pane, p)
		}
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.pane != paneSearch {
		t.Fatalf("shift+tab pane = %d, want %d", m.pane, paneSearch)
	}
}

func TestSearchPane(t *testing.T) {
	s := &fakeSearcher{}
	m := update(t, New(context.Background(), s, testReview()), tea.WindowSizeMsg{Width: 80, Height: 30})
	m = m.focus(paneSearch)
	m.input.SetValue("deadline")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if s.query != "deadline" || s.k != searchTopK {
		t.Fatalf("searcher got %q k=%d", s.query, s.k)
	}
	if len(m.results) != 2 || !strings.Contains(m.renderPane(), "chunk=2") {
		t.Errorf("first result not shown: %q", m.renderPane())
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestSearchWithoutSearcher(t *testing.T) {
	m := New(context.Background(), nil, testReview()).focus(paneSearch)
	m = m.runSearch("deadline")
	if !strings.Contains(m.status, "unavailable") {
		t.Errorf("status = %q", m.status)
	}
}

func TestContextPaneWithoutContext(t *testing.T) {
	r := testReview()
	r.Context = nil
	m := New(context.Background(), nil, r).focus(paneContext)
	if !strings.Contains(m.renderPane(), "No document context") {
		t.Errorf("pane = %q", m.renderPane())
	}
}

func TestBestSentence(t *testing.T) {
	sentences := []string{"Parking is free.", "The submission deadline is Friday.", "Lunch is at noon."}
	if got := bestSentence(sentences, "When is the submission deadline?"); got != 1 {
		t.Errorf("bestSentence = %d, want 1", got)
	}
	if got := bestSentence(sentences, "?!"); got != -1 {
		t.Errorf("bestSentence without words = %d, want -1", got)
	}
}
