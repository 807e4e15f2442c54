// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package keys generates and persists ed25519 identity keypairs for
// participants that want real signatures instead of the bind scheme.
package keys

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.cryptoscope.co/nocomment"
	"golang.org/x/crypto/ed25519"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/message"
)

// KeyPair is a participant's signing identity.
type KeyPair struct {
	ID      collapse.Identity
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// Signer returns the message signer for this keypair.
func (kp KeyPair) Signer() message.Signer {
	return message.NewEd25519Signer(kp.Private)
}

// secretFile is the on-disk format, base64 encoded key material with
// algo suffixes.
type secretFile struct {
	Curve   string            `json:"curve"`
	ID      collapse.Identity `json:"id"`
	Private string            `json:"private"`
	Public  string            `json:"public"`
}

// NewKeyPair generates a keypair from r (pass nil for crypto/rand).
func NewKeyPair(r io.Reader) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, errors.Wrap(err, "keys: error building key pair")
	}

	return &KeyPair{
		ID:      collapse.Identity("@" + base64.StdEncoding.EncodeToString(pub) + ".ed25519"),
		Public:  pub,
		Private: priv,
	}, nil
}

// SaveKeyPair writes the secret file. It refuses to clobber an
// existing one.
func SaveKeyPair(kp *KeyPair, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("keys: secret file %q already exists", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.Wrap(err, "keys: failed to create secret file")
	}

	sec := secretFile{
		Curve:   "ed25519",
		ID:      kp.ID,
		Private: base64.StdEncoding.EncodeToString(kp.Private) + ".ed25519",
		Public:  base64.StdEncoding.EncodeToString(kp.Public) + ".ed25519",
	}
	if err := json.NewEncoder(f).Encode(sec); err != nil {
		f.Close()
		return errors.Wrap(err, "keys: json encoding failed")
	}
	return errors.Wrap(f.Close(), "keys: failed to close secret file")
}

// LoadKeyPair opens fname, ignores comment lines and passes the rest
// to ParseKeyPair.
func LoadKeyPair(fname string) (*KeyPair, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "keys: could not open key file %s", fname)
	}
	defer f.Close()

	return ParseKeyPair(nocomment.NewReader(f))
}

// ParseKeyPair json decodes a secret file from the reader.
func ParseKeyPair(r io.Reader) (*KeyPair, error) {
	var sec secretFile
	if err := json.NewDecoder(r).Decode(&sec); err != nil {
		return nil, errors.Wrap(err, "keys: JSON decoding failed")
	}
	if sec.Curve != "ed25519" {
		return nil, errors.Errorf("keys: unsupported curve %q", sec.Curve)
	}

	public, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(sec.Public, ".ed25519"))
	if err != nil {
		return nil, errors.Wrap(err, "keys: base64 decode of public part failed")
	}
	private, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(sec.Private, ".ed25519"))
	if err != nil {
		return nil, errors.Wrap(err, "keys: base64 decode of private part failed")
	}
	if len(public) != ed25519.PublicKeySize || len(private) != ed25519.PrivateKeySize {
		return nil, errors.New("keys: wrong key material size")
	}

	return &KeyPair{
		ID:      sec.ID,
		Public:  ed25519.PublicKey(public),
		Private: ed25519.PrivateKey(private),
	}, nil
}
