// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/phi"
	"github.com/collapse-im/go-collapse/reputation"
)

// Option configures a node during New.
type Option func(*Node) error

// WithInfo sets the node's logger.
func WithInfo(logger log.Logger) Option {
	return func(n *Node) error {
		n.info = logger
		return nil
	}
}

// WithBlobStore hands the node a byte store for blob evidence. Stores
// that implement io.Closer are closed with the node.
func WithBlobStore(bs collapse.BlobStore) Option {
	return func(n *Node) error {
		n.blobs = bs
		if c, ok := bs.(io.Closer); ok {
			n.closers.addCloser(c)
		}
		return nil
	}
}

// WithReputation replaces the default (neutral) trust book, e.g. to
// tune step sizes.
func WithReputation(book *reputation.Book) Option {
	return func(n *Node) error {
		n.rep = book
		return nil
	}
}

// WithSolver selects the capture solver Φ uses.
func WithSolver(s phi.Solver) Option {
	return func(n *Node) error {
		n.collapser = phi.NewCollapser(n.blobs, s)
		return nil
	}
}

// WithEventCounter wires an accept/reject counter (labelled "event").
func WithEventCounter(c metrics.Counter) Option {
	return func(n *Node) error {
		n.evtCtr = c
		return nil
	}
}
