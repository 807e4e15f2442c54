// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"encoding/json"

	"github.com/collapse-im/go-collapse"
)

// EncodeWire serializes a message as a single enclosing envelope for
// transport or storage.
func EncodeWire(msg collapse.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeWire inverts EncodeWire. Malformed input fails cleanly with a
// collapse.DecodeError; it never panics and never yields a partially
// filled message.
func DecodeWire(data []byte) (collapse.Message, error) {
	var msg collapse.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		if collapse.IsDecodeFailure(err) {
			return collapse.Message{}, err
		}
		return collapse.Message{}, collapse.DecodeError{Cause: err}
	}
	return msg, nil
}
