// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

import (
	"encoding/json"
)

// Message is the signed, digested, parent-linked envelope around one
// piece of content. It is immutable once assembled; acceptance or
// rejection is a judgment each observer makes for itself and never
// alters the message.
//
// Invariants: Digest = hash(canonical content encoding) and Signature
// binds (Sender, Digest). Both are checked by recomputation on every
// intake, see message.VerifyIntegrity.
type Message struct {
	Sender    Identity
	Parent    Digest
	Content   Content
	Digest    Digest
	Signature Signature
	Timestamp Timestamp
}

// Key returns the digest under which this message is referenced.
func (m Message) Key() Digest { return m.Digest }

// IsRoot reports whether the message starts a new thread.
func (m Message) IsRoot() bool { return m.Parent.IsZero() }

type wireMessage struct {
	Sender    Identity        `json:"sender"`
	Parent    Digest          `json:"parent"`
	Content   json.RawMessage `json:"content"`
	Digest    Digest          `json:"digest"`
	Signature Signature       `json:"signature"`
	Timestamp Timestamp       `json:"timestamp"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	content, err := EncodeContent(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{
		Sender:    m.Sender,
		Parent:    m.Parent,
		Content:   content,
		Digest:    m.Digest,
		Signature: m.Signature,
		Timestamp: m.Timestamp,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wm wireMessage
	if err := json.Unmarshal(data, &wm); err != nil {
		return DecodeError{err}
	}
	content, err := DecodeContent(wm.Content)
	if err != nil {
		return err
	}
	m.Sender = wm.Sender
	m.Parent = wm.Parent
	m.Content = content
	m.Digest = wm.Digest
	m.Signature = wm.Signature
	m.Timestamp = wm.Timestamp
	return nil
}
