// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON. Messages are always complete;
// IncludeMetadata and IncludeTimestamps do not apply.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Participant model.User    `json:"participant"`
	SelfID      string        `json:"self_id"`
	ExportedAt  time.Time     `json:"exported_at"`
	Count       int           `json:"count"`
	Messages    []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	model.Message
	Status string `json:"status,omitempty"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	out := jsonTranscript{
		Participant: t.Counterpart,
		SelfID:      t.SelfID,
		ExportedAt:  t.exportedAt(),
		Count:       len(t.Messages),
		Messages:    make([]jsonMessage, len(t.Messages)),
	}
	for i, m := range t.Messages {
		out.Messages[i] = jsonMessage{Message: m, Status: t.Status(m)}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
