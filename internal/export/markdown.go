// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	first, last := t.Messages[0], t.Messages[len(t.Messages)-1]

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(t.Title())))
		sb.WriteString(fmt.Sprintf("participant: %s\n", escapeYAML(t.Counterpart.DisplayName())))
		if t.Counterpart.Department != "" {
			sb.WriteString(fmt.Sprintf("department: %s\n", escapeYAML(t.Counterpart.Department)))
		}
		if !first.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("started: %s\n", first.Timestamp.Format(time.RFC3339)))
		}
		if !last.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("updated: %s\n", last.Timestamp.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(t.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", t.exportedAt().Format(time.RFC3339)))
		sb.WriteString("generator: sarthi\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(t.Title())))

	prevAuthor := ""
	for _, msg := range t.Messages {
		author := t.Author(msg)
		if author != prevAuthor {
			sb.WriteString(fmt.Sprintf("**%s**", escapeMarkdown(author)))
			if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
				sb.WriteString(fmt.Sprintf(" <sub>%s</sub>", formatShortTimestamp(msg.Timestamp)))
			}
			sb.WriteString("\n\n")
			prevAuthor = author
		}

		sb.WriteString(quote(msg.Content))
		if status := t.Status(msg); status != "" {
			sb.WriteString(fmt.Sprintf(" <sub>%s</sub>", status))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from sarthi on %s*\n",
		t.exportedAt().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// quote renders content as a block quote, one "> " per line.
func quote(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a front matter value when it needs it.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
