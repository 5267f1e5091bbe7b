// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to one HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML. All message text is escaped.
func (e *HTMLExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := "dark-theme"
	if e.options.Theme == "light" {
		theme = "light-theme"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title())))
	sb.WriteString("    <meta name=\"generator\" content=\"sarthi\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s\">\n", theme))
	sb.WriteString("<div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("<div class=\"messages\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(t, msg))
	}
	sb.WriteString("</div>\n")

	sb.WriteString(fmt.Sprintf("<div class=\"footer\">Exported from sarthi on %s</div>\n",
		html.EscapeString(t.exportedAt().Format("January 2, 2006 at 3:04 PM"))))
	sb.WriteString("</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderHeader(t Transcript) string {
	var sb strings.Builder
	sb.WriteString("<div class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(t.Title())))
	sb.WriteString("<div class=\"metadata\">\n")
	if dept := t.Counterpart.Department; dept != "" {
		sb.WriteString(fmt.Sprintf("<span class=\"meta-item\">%s</span>\n", html.EscapeString(dept)))
	}
	if ts := t.Messages[0].Timestamp; !ts.IsZero() {
		sb.WriteString(fmt.Sprintf("<span class=\"meta-item\">Started %s</span>\n",
			html.EscapeString(formatTimestamp(ts))))
	}
	sb.WriteString(fmt.Sprintf("<span class=\"meta-item\">%d messages</span>\n", len(t.Messages)))
	sb.WriteString("</div>\n</div>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(t Transcript, msg model.Message) string {
	class := "message incoming"
	if msg.IsFrom(t.SelfID) {
		class = "message outgoing"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<div class=\"%s\" id=\"msg-%s\">\n", class, html.EscapeString(msg.ID)))
	sb.WriteString(fmt.Sprintf("<div class=\"author\">%s", html.EscapeString(t.Author(msg))))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		sb.WriteString(fmt.Sprintf(" <time datetime=\"%s\">%s</time>",
			msg.Timestamp.Format(time.RFC3339), html.EscapeString(formatShortTimestamp(msg.Timestamp))))
	}
	sb.WriteString("</div>\n")

	body := strings.ReplaceAll(html.EscapeString(strings.TrimSpace(msg.Content)), "\n", "<br>\n")
	sb.WriteString(fmt.Sprintf("<div class=\"content\">%s</div>\n", body))
	if status := t.Status(msg); status != "" {
		sb.WriteString(fmt.Sprintf("<div class=\"status %s\">%s</div>\n", status, status))
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --incoming-bg: #1f2335;
            --outgoing-bg: #2e3c64;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --incoming-bg: #f0f2f5;
            --outgoing-bg: #dbe9ff;
            --accent: #0366d6;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            line-height: 1.5;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 760px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; border-bottom: 1px solid var(--text-muted); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .messages { display: flex; flex-direction: column; gap: 10px; padding: 24px 32px; }
        .message { max-width: 75%; padding: 8px 12px; border-radius: 10px; }
        .incoming { align-self: flex-start; background: var(--incoming-bg); }
        .outgoing { align-self: flex-end; background: var(--outgoing-bg); }
        .author { font-size: 13px; font-weight: 600; color: var(--accent); }
        .author time { font-weight: 400; color: var(--text-muted); margin-left: 6px; }
        .status { font-size: 12px; text-align: right; color: var(--text-muted); }
        .footer { padding: 16px 32px; font-size: 12px; color: var(--text-muted); text-align: center; }
    </style>
`
