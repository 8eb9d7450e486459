package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragmail/internal/domain"
	"ragmail/internal/textutil"
)

// Searcher is the TUI-facing subset of the reply service.
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error)
}

// Review is what a finished reply run hands to the review screen.
type Review struct {
	Thread  domain.EmailThread
	Context *string
	Reply   string
	Summary string
}

type pane int

const (
	paneReply pane = iota
	paneContext
	paneThread
	paneSearch
	paneCount
)

var paneTitles = [paneCount]string{"Reply", "Context", "Thread", "Search"}

const searchTopK = 10

// Model is the Bubble Tea model for the reply review screen.
type Model struct {
	ctx      context.Context
	searcher Searcher
	review   Review
	pane     pane
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	cursor   int
	status   string
	ready    bool
	query    string
}

// New creates a review model. searcher may be nil, which disables the Search pane.
func New(ctx context.Context, searcher Searcher, review Review) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search the indexed document and press Enter"
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		searcher: searcher,
		review:   review,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Tab switches panes, Ctrl+C quits.",
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // header, tabs, summary + status + query box + query line
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderPane())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m = m.focus((m.pane + 1) % paneCount)
			return m, nil
		case "shift+tab":
			m = m.focus((m.pane + paneCount - 1) % paneCount)
			return m, nil
		case "q", "esc":
			if m.pane != paneSearch {
				return m, tea.Quit
			}
		case "enter":
			if m.pane == paneSearch {
				m = m.runSearch(strings.TrimSpace(m.input.Value()))
				return m, nil
			}
		case "down":
			if m.pane == paneSearch && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderPane())
				return m, nil
			}
		case "up":
			if m.pane == paneSearch && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderPane())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	if m.pane == paneSearch {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) focus(p pane) Model {
	m.pane = p
	if p == paneSearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.viewport.SetContent(m.renderPane())
	m.viewport.GotoTop()
	return m
}

func (m Model) runSearch(q string) Model {
	if q == "" {
		return m
	}
	if m.searcher == nil {
		m.status = "Search is unavailable without an index."
		return m
	}
	res, err := m.searcher.Search(m.ctx, q, searchTopK)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else {
		m.status = fmt.Sprintf("%d results for %q", len(res), q)
		m.results = res
		m.cursor = 0
		m.query = q
	}
	m.viewport.SetContent(m.renderPane())
	return m
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragmail review")
	summary := summaryStyle.Render(m.review.Summary)
	body := bodyBoxStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	out := header + "\n" + m.renderTabs() + "\n" + summary + "\n" + body + "\n"
	if m.pane == paneSearch {
		out += queryBoxStyle.Render(m.input.View()) + "\n"
	}
	return out + status
}

func (m Model) renderTabs() string {
	tabs := make([]string, paneCount)
	for i, title := range paneTitles {
		if pane(i) == m.pane {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = tabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderPane() string {
	switch m.pane {
	case paneContext:
		if m.review.Context == nil {
			return "No document context was used for this reply."
		}
		return highlightBestSentence(*m.review.Context, m.review.Thread.CurrentMessage)
	case paneThread:
		var b strings.Builder
		if m.review.Thread.Subject != "" {
			b.WriteString("Subject: " + m.review.Thread.Subject + "\n")
		}
		if m.review.Thread.From != "" {
			b.WriteString("From: " + m.review.Thread.From + "\n")
		}
		b.WriteString("\nCurrent message:\n" + m.review.Thread.CurrentMessage)
		if m.review.Thread.MarkerFound {
			b.WriteString("\n\nQuoted thread:\n" + m.review.Thread.FullThread)
		}
		return b.String()
	case paneSearch:
		if len(m.results) == 0 {
			return "No results yet."
		}
		r := m.results[m.cursor]
		title := fmt.Sprintf("Result %d/%d  chunk=%d  score=%.3f", m.cursor+1, len(m.results), r.Chunk.Index, r.Score)
		return title + "\n\n" + highlightBestSentence(r.Chunk.Content, m.query)
	default:
		return m.review.Reply
	}
}

var (
	bodyBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	best := bestSentence(sentences, query)
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == best {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// bestSentence returns the index of the sentence sharing the most words with query, or -1
// when query has no words. Ties go to the earlier sentence.
func bestSentence(sentences []string, query string) int {
	qTokens := textutil.TokenSet(query)
	if len(qTokens) == 0 {
		return -1
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := textutil.OverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}
