// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markupChars are the characters whose presence makes a message worth
// running through glamour. Plain text is shown as typed.
const markupChars = "*_`#>[|~"

// Markdown renders message bodies with glamour. Renderers are built per wrap
// width on first use and reused after that. A Markdown belongs to the UI
// loop and is not safe for concurrent use.
type Markdown struct {
	style     string
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer set using glamour's dark or light style.
func NewMarkdown(dark bool) *Markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &Markdown{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Render formats content for width cells. Content without markup, and any
// content glamour fails on, is returned unchanged.
func (m *Markdown) Render(content string, width int) string {
	if m == nil || !strings.ContainsAny(content, markupChars) {
		return content
	}
	r, err := m.renderer(width)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return trimBlankLines(out)
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	if width < 10 {
		width = 10
	}
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}

// trimBlankLines drops the document margins glamour adds above and below.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	for i := start; i < end; i++ {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines[start:end], "\n")
}
