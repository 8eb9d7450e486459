package thread

import (
	"regexp"
	"strings"

	"ragmail/internal/common"
	"ragmail/internal/domain"
)

// quoteHeaderRe matches a quoting header such as
// "On Mon, Apr 7, 2025 at 5:24 PM Jane <jane@example.com> wrote:". The header must sit on one line.
var quoteHeaderRe = regexp.MustCompile(`On\s.+?<.+?>\swrote:`)

// Splitter separates the newest message of a thread from the quoted history.
// It is a best-effort heuristic; nested quote levels stay in the history untouched.
type Splitter struct {
	logger *common.Logger
}

func NewSplitter(logger *common.Logger) *Splitter {
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	return &Splitter{logger: logger}
}

// Split cuts raw at the first quoting header. Without a header both fields hold the trimmed input
// and MarkerFound is false.
func (s *Splitter) Split(raw string) domain.EmailThread {
	loc := quoteHeaderRe.FindStringIndex(raw)
	if loc == nil {
		s.logger.Warnf("no quoting header found, using the full email as both current message and thread")
		trimmed := strings.TrimSpace(raw)
		return domain.EmailThread{CurrentMessage: trimmed, FullThread: trimmed}
	}
	current := strings.TrimSpace(raw[:loc[0]])
	if current == "" {
		s.logger.Warnf("thread starts with a quoting header, current message is empty")
	}
	return domain.EmailThread{
		CurrentMessage: current,
		FullThread:     strings.TrimSpace(raw[loc[0]:]),
		MarkerFound:    true,
	}
}
