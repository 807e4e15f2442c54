// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	"github.com/collapse-im/go-collapse"
)

// Signer binds a participant's identity to content digests. The node
// only ever talks to this interface, so a production scheme can be
// substituted without touching verification or fusion logic.
type Signer interface {
	Identity() collapse.Identity
	Sign(collapse.Digest) collapse.Signature
}

// BindSigner is the placeholder scheme: the signature is a pure,
// collision-resistant function of (identity, digest), so any tampering
// with content, sender or digest is detectable by recomputation. It is
// a stand-in binding, not a security primitive.
type BindSigner struct {
	ID collapse.Identity
}

func (b BindSigner) Identity() collapse.Identity { return b.ID }

func (b BindSigner) Sign(d collapse.Digest) collapse.Signature {
	return bindSignature(b.ID, d)
}

func bindSignature(id collapse.Identity, d collapse.Digest) collapse.Signature {
	h := sha256.New()
	h.Write([]byte("collapse:bind:v1|"))
	h.Write([]byte(id))
	h.Write([]byte("|"))
	h.Write(d[:])
	return collapse.Signature(base64.StdEncoding.EncodeToString(h.Sum(nil)) + ".sig.bind")
}

// Ed25519Signer signs digests with a real keypair. Its identity is
// derived from the public key (@<base64>.ed25519).
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	id   collapse.Identity
}

func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	pub := priv.Public().(ed25519.PublicKey)
	return &Ed25519Signer{
		priv: priv,
		id:   collapse.Identity("@" + base64.StdEncoding.EncodeToString(pub) + ".ed25519"),
	}
}

func (s *Ed25519Signer) Identity() collapse.Identity { return s.id }

func (s *Ed25519Signer) Sign(d collapse.Digest) collapse.Signature {
	sig := ed25519.Sign(s.priv, d[:])
	return collapse.Signature(base64.StdEncoding.EncodeToString(sig) + ".sig.ed25519")
}

// VerifySignature checks sig against (id, d), dispatching on the
// signature's algo suffix. Signatures are never trusted blindly.
func VerifySignature(id collapse.Identity, d collapse.Digest, sig collapse.Signature) error {
	switch sig.Algo() {
	case collapse.SigAlgoBind:
		if sig != bindSignature(id, d) {
			return collapse.ErrInvalidSig
		}
		return nil

	case collapse.SigAlgoEd25519:
		rawKey, err := id.PubKey()
		if err != nil {
			return errors.Wrap(err, "message: verify needs a keyed identity")
		}
		if len(rawKey) != ed25519.PublicKeySize {
			return collapse.ErrInvalidSig
		}
		rawSig, err := sig.Raw()
		if err != nil {
			return errors.Wrap(err, "message: verify raw unpack failed")
		}
		if !ed25519.Verify(ed25519.PublicKey(rawKey), d[:], rawSig) {
			return collapse.ErrInvalidSig
		}
		return nil

	default:
		return errors.Errorf("message: unknown signature algo in %q", sig)
	}
}
