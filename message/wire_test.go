// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collapse-im/go-collapse"
)

func TestWireRoundtrip(t *testing.T) {
	r := require.New(t)

	signer := BindSigner{ID: "alice"}
	msg, err := Assemble(signer, collapse.Digest{7}, collapse.TextBody{CanonicalText: "over the wire"}, 1700000000000)
	r.NoError(err)

	data, err := EncodeWire(msg)
	r.NoError(err)

	decoded, err := DecodeWire(data)
	r.NoError(err)
	r.Equal(msg, decoded)

	// integrity survives the roundtrip
	r.NoError(VerifyIntegrity(decoded))
}

func TestDecodeWireFailsCleanly(t *testing.T) {
	a := assert.New(t)

	for _, tc := range [][]byte{
		nil,
		[]byte("not even json"),
		[]byte(`{"sender":"alice","content":{"type":"nope","body":{}}}`),
		[]byte(`{"sender":"alice","parent":"not a digest ref"}`),
	} {
		msg, err := DecodeWire(tc)
		a.Error(err, "decoded %q", tc)
		a.True(collapse.IsDecodeFailure(err), "want decode failure for %q", tc)
		a.Equal(collapse.Message{}, msg, "no partially filled message")
	}
}
