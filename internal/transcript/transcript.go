// Package transcript renders a chat thread as a standalone HTML document.
package transcript

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/tessro/ocd/internal/daemon"
)

//go:embed transcript.html
var pageTemplate string

// Document is the input to Render.
type Document struct {
	Profile  string
	Chat     daemon.Chat
	Thread   daemon.ChatThread
	Exported time.Time
}

type pageData struct {
	Title    string
	Profile  string
	Exported string
	Messages []messageData
}

type messageData struct {
	ID    string
	Role  daemon.Role
	Class string
	Time  string
	Body  template.HTML
}

// Renderer converts threads to HTML. Message bodies are treated as Markdown;
// raw HTML inside them is escaped.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates a Renderer.
func New() (*Renderer, error) {
	tmpl, err := template.New("transcript").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	return &Renderer{md: md, tmpl: tmpl}, nil
}

// Render writes doc to w.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	title := doc.Chat.Title
	if title == "" {
		title = doc.Chat.ID
	}
	exported := doc.Exported
	if exported.IsZero() {
		exported = time.Now()
	}
	data := pageData{
		Title:    title,
		Profile:  doc.Profile,
		Exported: exported.Format(time.RFC1123),
	}
	for _, m := range doc.Thread.Messages {
		body, err := r.markdown(m.Text)
		if err != nil {
			return fmt.Errorf("rendering message %s: %w", m.ID, err)
		}
		data.Messages = append(data.Messages, messageData{
			ID:    m.ID,
			Role:  m.Role,
			Class: class(m),
			Time:  m.CreatedAt.Local().Format("2006-01-02 15:04"),
			Body:  body,
		})
	}
	return r.tmpl.Execute(w, data)
}

func (r *Renderer) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	// goldmark escapes raw HTML without html.WithUnsafe.
	return template.HTML(buf.String()), nil
}

func class(m daemon.ChatMessage) string {
	if m.IsError() {
		return "error"
	}
	switch m.Role {
	case daemon.RoleUser, daemon.RoleAssistant, daemon.RoleTool:
		return string(m.Role)
	}
	return "assistant"
}
