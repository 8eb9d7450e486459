package thread

import (
	"fmt"
	"io"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Attachment is a file carried by a MIME message.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// IsPDF reports whether the attachment looks like a PDF by type or file name.
func (a Attachment) IsPDF() bool {
	return strings.EqualFold(a.ContentType, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(a.FileName), ".pdf")
}

// Message is the part of a MIME email the pipeline uses.
type Message struct {
	Subject     string
	From        string
	Body        string
	Attachments []Attachment
}

// ReadMIME parses an RFC 5322 message. HTML-only bodies are converted to text by enmime.
func ReadMIME(r io.Reader) (*Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("parse mime message: %w", err)
	}
	msg := &Message{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Body:    env.Text,
	}
	for _, p := range env.Attachments {
		msg.Attachments = append(msg.Attachments, Attachment{
			FileName:    p.FileName,
			ContentType: p.ContentType,
			Content:     p.Content,
		})
	}
	return msg, nil
}

// FirstPDF returns the first PDF attachment, if any.
func (m *Message) FirstPDF() (Attachment, bool) {
	for _, a := range m.Attachments {
		if a.IsPDF() {
			return a, true
		}
	}
	return Attachment{}, false
}
