package composer

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"ragmail/internal/domain"
)

// ContextHeader introduces the retrieved document block. It appears only when context was retrieved.
const ContextHeader = "Here is the relevant content from the attached document:"

const replyPrompt = `{{.Intro}}
Your tone is {{.Tone}}. Your goal is to write a clear, polite, and simple email reply in {{.Voice}}.

Before writing, do the following:
1. Acknowledge the sender and their message.
2. Identify whether the latest message contains any action items or questions, and address each one.
3. If document content is provided below and it holds relevant details, briefly incorporate them into the reply.
4. If the document does not directly inform the reply, leave it out.
5. Keep the reply friendly, concise, and very easy to follow.
6. Avoid repeating the same points or phrases.
{{if .Subject}}
Subject: {{.Subject}}
{{end}}
Here is the most recent message you are replying to:
{{.CurrentMessage}}

Here is the full email thread for context:
{{.FullThread}}
{{if .HasContext}}
` + ContextHeader + `
{{.Context}}
{{end}}
Write a professional and helpful reply in {{.Voice}}.{{if .Phrases}} Use some of these phrases when appropriate: {{.Phrases}}{{end}}

End with:
{{.Signoff}}
`

var promptTmpl = template.Must(template.New("reply").Parse(replyPrompt))

// PromptInput is everything the reply prompt is built from.
type PromptInput struct {
	Thread  domain.EmailThread
	Context *string
	Persona domain.Persona
}

type promptData struct {
	Intro          string
	Tone           string
	Voice          string
	Subject        string
	CurrentMessage string
	FullThread     string
	HasContext     bool
	Context        string
	Phrases        string
	Signoff        string
}

// BuildPrompt renders the instruction prompt for one reply.
func BuildPrompt(in PromptInput) (string, error) {
	p := in.Persona
	data := promptData{
		Tone:           p.Tone,
		Voice:          "your own voice",
		Subject:        in.Thread.Subject,
		CurrentMessage: in.Thread.CurrentMessage,
		FullThread:     in.Thread.FullThread,
		Phrases:        quoteAll(p.Phrases),
		Signoff:        p.Signoff,
	}
	if p.Name != "" {
		data.Voice = p.Name + "'s writing style"
	}
	if in.Context != nil {
		data.HasContext, data.Context = true, *in.Context
	}

	intro := "You are responding to an email"
	if p.Name != "" {
		intro = "You are " + p.Name + ", responding to an email"
	}
	if in.Context != nil {
		intro += " that includes a PDF attachment"
	}
	data.Intro = intro + "."

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

func quoteAll(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, ph := range phrases {
		if strings.TrimSpace(ph) == "" {
			continue
		}
		quoted = append(quoted, strconv.Quote(ph))
	}
	return strings.Join(quoted, ", ")
}
