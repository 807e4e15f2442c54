// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DigestSize is the length of a content digest in bytes (sha256).
const DigestSize = 32

// Digest is the fingerprint of a canonically encoded piece of content.
// It doubles as the causal-link key: a message references the digest of
// its parent. Equality is byte-exact.
type Digest [DigestSize]byte

// ZeroDigest marks a message without a parent, the root of a thread.
var ZeroDigest Digest

var (
	ErrInvalidDigest = errors.New("collapse: invalid digest ref")
	ErrInvalidSig    = errors.New("collapse: invalid signature")
)

func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

func (d Digest) Equal(other Digest) bool {
	return d == other
}

// Ref returns the external string form, like a blob ref: &<base64>.sha256
func (d Digest) Ref() string {
	return "&" + base64.StdEncoding.EncodeToString(d[:]) + ".sha256"
}

// ShortRef is Ref truncated for logging.
func (d Digest) ShortRef() string {
	return "&" + base64.StdEncoding.EncodeToString(d[:])[:8] + "..."
}

func (d Digest) String() string { return d.Ref() }

// ParseDigest parses the &<base64>.sha256 form produced by Ref.
func ParseDigest(ref string) (Digest, error) {
	var d Digest
	if !strings.HasPrefix(ref, "&") {
		return d, ErrInvalidDigest
	}
	parts := strings.Split(ref[1:], ".")
	if len(parts) != 2 || strings.ToLower(parts[1]) != "sha256" {
		return d, ErrInvalidDigest
	}
	raw, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return d, errors.Wrap(err, "collapse: digest decode failed")
	}
	if n := len(raw); n != DigestSize {
		return d, errors.Errorf("collapse: expected %d hash bytes, got %d", DigestSize, n)
	}
	copy(d[:], raw)
	return d, nil
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Ref()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Identity is the opaque principal identifier of a participant. It is
// stable for the lifetime of the participant. Identities minted from
// ed25519 keypairs use the @<base64>.ed25519 form; plain names are
// legal for the bind signature scheme.
type Identity string

func (id Identity) String() string { return string(id) }

// PubKey returns the raw public key for @<base64>.ed25519 identities.
func (id Identity) PubKey() ([]byte, error) {
	s := string(id)
	if !strings.HasPrefix(s, "@") || !strings.HasSuffix(s, ".ed25519") {
		return nil, errors.Errorf("collapse: identity %q carries no public key", id)
	}
	return base64.StdEncoding.DecodeString(strings.TrimSuffix(s[1:], ".ed25519"))
}

// SigAlgo enumerates the supported signature schemes.
type SigAlgo int

const (
	SigAlgoInvalid SigAlgo = iota

	// SigAlgoBind is the placeholder scheme: a deterministic,
	// collision-resistant binding of (identity, digest), verified by
	// recomputation. Not a security primitive.
	SigAlgoBind

	SigAlgoEd25519
)

func (a SigAlgo) String() string {
	switch a {
	case SigAlgoBind:
		return "bind"
	case SigAlgoEd25519:
		return "ed25519"
	default:
		return "???"
	}
}

// Signature is an algo-suffixed signature value: <base64>.sig.<algo>
type Signature string

func (s Signature) Algo() SigAlgo {
	parts := strings.Split(string(s), ".")
	if len(parts) != 3 || parts[1] != "sig" {
		return SigAlgoInvalid
	}
	switch strings.ToLower(parts[2]) {
	case "bind":
		return SigAlgoBind
	case "ed25519":
		return SigAlgoEd25519
	}
	return SigAlgoInvalid
}

func (s Signature) Raw() ([]byte, error) {
	b64 := strings.Split(string(s), ".")[0]
	raw, err := base64.StdEncoding.DecodeString(b64)
	return raw, errors.Wrap(err, "collapse: signature decode failed")
}

// Timestamp is unix milliseconds, attached at message assembly.
// It is display/audit data only; ordering decisions use causal links.
type Timestamp int64

func Now() Timestamp {
	return Timestamp(time.Now().UnixNano() / int64(time.Millisecond))
}

func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t)*int64(time.Millisecond))
}
