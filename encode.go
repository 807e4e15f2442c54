// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// contentEnvelope is the tagged wire form of the content union.
type contentEnvelope struct {
	Type ContentType     `json:"type"`
	Body json.RawMessage `json:"body"`
}

// EncodeContent returns the canonical byte encoding of a content
// variant. This encoding is what gets digested, so it must be stable
// across processes: one field order, one envelope, no alternatives.
func EncodeContent(c Content) ([]byte, error) {
	if c == nil {
		return nil, errors.New("collapse: refusing to encode nil content")
	}
	body, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "collapse: content body encode failed")
	}
	return json.Marshal(contentEnvelope{Type: c.Type(), Body: body})
}

// DecodeContent inverts EncodeContent. Unknown type tags are an error,
// never a silent default.
func DecodeContent(data []byte) (Content, error) {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, DecodeError{err}
	}

	var (
		c   Content
		err error
	)
	switch env.Type {
	case ContentTypeText:
		var b TextBody
		err = json.Unmarshal(env.Body, &b)
		c = b
	case ContentTypeRetina:
		var b RetinaBody
		err = json.Unmarshal(env.Body, &b)
		c = b
	case ContentTypeStatus:
		var b StatusEvent
		err = json.Unmarshal(env.Body, &b)
		c = b
	case ContentTypeBlob:
		var b BlobBody
		err = json.Unmarshal(env.Body, &b)
		c = b
	default:
		return nil, DecodeError{errors.Errorf("unknown content type %q", env.Type)}
	}
	if err != nil {
		return nil, DecodeError{err}
	}
	return c, nil
}
