// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package blobstore implements the content-addressed byte store on the
// local file system: sha256-sharded directories, tmp-file writes moved
// into place once the hash is known.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.cryptoscope.co/luigi"

	"github.com/collapse-im/go-collapse"
)

// New creates a blob store under basePath.
func New(basePath string) (collapse.BlobStore, error) {
	err := os.MkdirAll(filepath.Join(basePath, "sha256"), 0700)
	if err != nil {
		return nil, errors.Wrap(err, "blobstore: error making dir for hash sha256")
	}

	err = os.MkdirAll(filepath.Join(basePath, "tmp"), 0700)
	if err != nil {
		return nil, errors.Wrap(err, "blobstore: error making tmp dir")
	}

	bs := &blobStore{
		basePath: basePath,
	}
	bs.sink, bs.bcast = luigi.NewBroadcast()

	return bs, nil
}

type blobStore struct {
	basePath string

	sink  luigi.Sink
	bcast luigi.Broadcast
}

func (store *blobStore) getPath(digest collapse.Digest) string {
	hexHash := hex.EncodeToString(digest[:])
	return filepath.Join(store.basePath, "sha256", hexHash[:2], hexHash[2:])
}

func (store *blobStore) getTmpPath() string {
	return filepath.Join(store.basePath, "tmp", fmt.Sprint(time.Now().UnixNano()))
}

func (store *blobStore) Get(digest collapse.Digest) (io.ReadCloser, error) {
	f, err := os.Open(store.getPath(digest))
	if os.IsNotExist(err) {
		return nil, collapse.ErrBlobNotFound{Digest: digest}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "blobstore: error opening %s", digest.ShortRef())
	}
	return f, nil
}

func (store *blobStore) Put(blob io.Reader) (collapse.Digest, error) {
	var digest collapse.Digest

	tmpPath := store.getTmpPath()
	f, err := os.Create(tmpPath)
	if err != nil {
		return digest, errors.Wrapf(err, "blobstore: error creating tmp file at %q", tmpPath)
	}

	h := sha256.New()
	if _, err := io.Copy(f, io.TeeReader(blob, h)); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return digest, errors.Wrap(err, "blobstore: error copying")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return digest, errors.Wrap(err, "blobstore: error closing tmp file")
	}
	copy(digest[:], h.Sum(nil))

	finalPath := store.getPath(digest)
	if _, err := os.Stat(finalPath); err == nil {
		// already stored, the put is a no-op
		os.Remove(tmpPath)
		return digest, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0700); err != nil {
		return digest, errors.Wrap(err, "blobstore: error making shard dir")
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return digest, errors.Wrapf(err, "blobstore: error moving blob to %q", finalPath)
	}

	store.notify(collapse.BlobStoreOpPut, digest)
	return digest, nil
}

func (store *blobStore) Delete(digest collapse.Digest) error {
	err := os.Remove(store.getPath(digest))
	if os.IsNotExist(err) {
		return collapse.ErrBlobNotFound{Digest: digest}
	}
	if err != nil {
		return errors.Wrapf(err, "blobstore: error removing %s", digest.ShortRef())
	}
	store.notify(collapse.BlobStoreOpRm, digest)
	return nil
}

func (store *blobStore) Size(digest collapse.Digest) (int64, error) {
	fi, err := os.Stat(store.getPath(digest))
	if os.IsNotExist(err) {
		return 0, collapse.ErrBlobNotFound{Digest: digest}
	}
	if err != nil {
		return 0, errors.Wrapf(err, "blobstore: error stating %s", digest.ShortRef())
	}
	return fi.Size(), nil
}

func (store *blobStore) List() luigi.Source {
	var src luigi.SliceSource

	root := filepath.Join(store.basePath, "sha256")
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		shard := filepath.Base(filepath.Dir(path))
		raw, err := hex.DecodeString(shard + filepath.Base(path))
		if err != nil || len(raw) != collapse.DigestSize {
			return nil // stray file, not a blob
		}
		var digest collapse.Digest
		copy(digest[:], raw)
		src = append(src, digest)
		return nil
	})
	if err != nil {
		return errorSource{errors.Wrap(err, "blobstore: list walk failed")}
	}

	return &src
}

type errorSource struct{ err error }

func (src errorSource) Next(context.Context) (interface{}, error) {
	return nil, src.err
}

func (store *blobStore) Changes() luigi.Broadcast {
	return store.bcast
}

func (store *blobStore) notify(op collapse.BlobStoreOp, digest collapse.Digest) {
	store.sink.Pour(context.TODO(), collapse.BlobStoreNotification{
		Op:  op,
		Ref: digest,
	})
}
