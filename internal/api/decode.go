// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// validator is satisfied by every model payload type.
type validator interface {
	Validate() error
}

// unwrap strips the envelopes the server wraps payloads in. Bare arrays and
// objects pass through; {"data": ...} and {"<key>": ...} are peeled, at most
// two levels deep.
func unwrap(body []byte, key string) []byte {
	for depth := 0; depth < 2; depth++ {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return trimmed
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return trimmed
		}
		inner, ok := env["data"]
		if !ok {
			inner, ok = env[key]
		}
		if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			return trimmed
		}
		body = inner
	}
	return bytes.TrimSpace(body)
}

// decodeList decodes and validates a list payload.
func decodeList[T validator](body []byte, key string) ([]T, error) {
	raw := unwrap(body, key)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("%w: expected %s list", ErrInvalidResponse, key)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, key, err)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidResponse, key, i, err)
		}
	}
	return items, nil
}

// decodeOne decodes and validates a single-object payload.
func decodeOne[T validator](body []byte, key string) (T, error) {
	var item T
	raw := unwrap(body, key)
	if len(raw) == 0 || raw[0] != '{' {
		return item, fmt.Errorf("%w: expected %s object", ErrInvalidResponse, key)
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, key, err)
	}
	if err := item.Validate(); err != nil {
		return item, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return item, nil
}
