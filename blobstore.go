// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

import (
	"io"

	"go.cryptoscope.co/luigi"
)

const (
	// BlobStoreOpPut is used in put notifications
	BlobStoreOpPut BlobStoreOp = "put"

	// BlobStoreOpRm is used in remove notifications
	BlobStoreOpRm BlobStoreOp = "rm"
)

// BlobStore is the content-addressed byte store the collapse step
// hands binary evidence to. Put is idempotent: re-putting identical
// bytes is a no-op beyond the first write, and the returned digest is
// always the hash of the bytes.
type BlobStore interface {
	// Get returns a reader of the blob with the given digest, or an
	// ErrBlobNotFound if it was never stored.
	Get(Digest) (io.ReadCloser, error)

	// Put stores the data in the reader and returns its address.
	Put(io.Reader) (Digest, error)

	// Delete removes a blob from the store.
	Delete(Digest) error

	// Size returns the byte length of a stored blob.
	Size(Digest) (int64, error)

	// List returns a source of the digests of all stored blobs.
	List() luigi.Source

	// Changes returns a broadcast that emits put and remove notifications.
	Changes() luigi.Broadcast
}

// BlobStoreNotification contains info on a single change of the blob store.
type BlobStoreNotification struct {
	Op  BlobStoreOp
	Ref Digest
}

func (bn BlobStoreNotification) String() string {
	return bn.Op.String() + ": " + bn.Ref.Ref()
}

// BlobStoreOp specifies the operation in a blob store notification.
type BlobStoreOp string

func (op BlobStoreOp) String() string {
	return string(op)
}
