// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package node implements the per-participant orchestrator: a
// single-threaded actor owning an inbox of accepted messages, a
// reputation book and a retina cache, talking to peers only through
// the delivery bus.
package node

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/pkg/errors"
	"go.cryptoscope.co/luigi"
	"go.cryptoscope.co/margaret"
	"go.cryptoscope.co/margaret/mem"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/message"
	"github.com/collapse-im/go-collapse/phi"
	"github.com/collapse-im/go-collapse/reputation"
)

// Node is one participant. All of its state is exclusively owned and
// mutated only by its own Send/Poll operations; the bus is the single
// shared resource.
type Node struct {
	id     collapse.Identity
	signer message.Signer

	bus   collapse.Bus
	blobs collapse.BlobStore

	collapser *phi.Collapser
	rep       *reputation.Book

	// receiveLog is the append-only sequence of accepted messages,
	// the sole source of known causal history for this observer.
	receiveLog margaret.Log
	byDigest   map[collapse.Digest]margaret.Seq

	// cache of accepted retina content, in acceptance order, feeding
	// later fusion and lookup.
	retinas     map[collapse.Digest]collapse.RetinaBody
	retinaOrder []collapse.Digest

	info    log.Logger
	evtCtr  metrics.Counter
	closers multiCloser
}

// New registers a participant on the bus and hands it an empty inbox
// and a fresh (neutral) reputation book.
func New(signer message.Signer, bus collapse.Bus, opts ...Option) (*Node, error) {
	if signer == nil {
		return nil, errors.New("node: need a signer")
	}
	if bus == nil {
		return nil, errors.New("node: need a bus")
	}

	n := &Node{
		id:         signer.Identity(),
		signer:     signer,
		bus:        bus,
		receiveLog: mem.New(),
		byDigest:   make(map[collapse.Digest]margaret.Seq),
		retinas:    make(map[collapse.Digest]collapse.RetinaBody),
		info:       log.NewNopLogger(),
		evtCtr:     discard.NewCounter(),
	}

	for i, opt := range opts {
		if err := opt(n); err != nil {
			return nil, errors.Wrapf(err, "node: error applying option #%d", i)
		}
	}

	if n.collapser == nil {
		n.collapser = phi.NewCollapser(n.blobs, nil)
	}
	if n.rep == nil {
		n.rep = reputation.NewBook()
	}

	bus.Register(n.id)
	return n, nil
}

func (n *Node) ID() collapse.Identity { return n.id }

// Reputation exposes the observer's trust book for inspection and
// decay ticks.
func (n *Node) Reputation() *reputation.Book { return n.rep }

// BlobStore returns the configured byte store, nil if none.
func (n *Node) BlobStore() collapse.BlobStore { return n.blobs }

// Send collapses evidence into canonical content, assembles the signed
// message, runs it through the node's own acceptance path and then
// broadcasts it. Collapse or store failures abort the send and are
// returned; a local rejection does not (the message was still valid to
// broadcast, each observer judges for itself).
//
// Self-sends go through the same gates as everything else, so a node
// rewards (or punishes) itself like any other sender. That asymmetry
// is intentional; reputation is not comparative across observers.
func (n *Node) Send(parent collapse.Digest, ev phi.Evidence) (collapse.Message, error) {
	content, err := n.collapser.Collapse(ev)
	if err != nil {
		return collapse.Message{}, errors.Wrap(err, "node: collapse failed")
	}

	msg, err := message.Assemble(n.signer, parent, content, collapse.Now())
	if err != nil {
		return collapse.Message{}, errors.Wrap(err, "node: assemble failed")
	}

	if err := n.accept(msg); err != nil {
		level.Warn(n.info).Log("event", "self-send rejected", "err", err)
	}

	n.bus.Broadcast(n.id, msg)
	return msg, nil
}

// Poll drains all messages queued for this participant and runs each,
// in delivery order, through the acceptance path. It returns how many
// were accepted; rejections are punished, logged and counted, never
// fatal.
func (n *Node) Poll() int {
	var accepted int
	for _, msg := range n.bus.Drain(n.id) {
		if err := n.accept(msg); err == nil {
			accepted++
		}
	}
	return accepted
}

// AckDelivered broadcasts a delivered receipt for the given digest.
// Receipts are first-class causal messages: the acknowledged digest is
// the parent, and they travel the ordinary Send path.
func (n *Node) AckDelivered(digest collapse.Digest) (collapse.Message, error) {
	return n.ack(digest, collapse.StatusDelivered)
}

// AckRead broadcasts a read receipt, see AckDelivered.
func (n *Node) AckRead(digest collapse.Digest) (collapse.Message, error) {
	return n.ack(digest, collapse.StatusRead)
}

func (n *Node) ack(digest collapse.Digest, kind collapse.StatusKind) (collapse.Message, error) {
	ackRef := digest
	return n.Send(digest, phi.StatusIntent{Event: collapse.StatusEvent{
		Kind:      kind,
		DigestAck: &ackRef,
		At:        collapse.Now(),
	}})
}

// accept is the core intake, in fixed order: integrity, then
// causality, then trust. An unverifiable forgery must never perturb
// causal state or trust beyond punishing its claimed sender.
func (n *Node) accept(msg collapse.Message) error {
	if err := message.VerifyIntegrity(msg); err != nil {
		return n.reject(msg, collapse.RejectIntegrity, err)
	}

	if err := message.VerifyCausality(msg, n); err != nil {
		return n.reject(msg, collapse.RejectCausality, err)
	}

	if !n.rep.Admit(msg.Sender) {
		return n.reject(msg, collapse.RejectTrust,
			errors.Errorf("sender scored %.2f, admission needs %.2f", n.rep.Score(msg.Sender), n.rep.AdmitThreshold()))
	}

	seq, err := n.receiveLog.Append(msg)
	if err != nil {
		// mem log appends don't fail; treat it as fatal state damage
		return errors.Wrap(err, "node: inbox append failed")
	}
	n.byDigest[msg.Digest] = seq

	if r, ok := msg.Content.(collapse.RetinaBody); ok {
		if _, seen := n.retinas[msg.Digest]; !seen {
			n.retinas[msg.Digest] = r
			n.retinaOrder = append(n.retinaOrder, msg.Digest)
		}
	}

	n.rep.Reward(msg.Sender)
	n.evtCtr.With("event", "accepted").Add(1)
	level.Debug(n.info).Log("event", "accepted", "msg", msg.Digest.ShortRef(), "sender", msg.Sender)
	return nil
}

func (n *Node) reject(msg collapse.Message, reason collapse.RejectionReason, cause error) error {
	n.rep.Punish(msg.Sender)
	n.evtCtr.With("event", "rejected-"+reason.String()).Add(1)
	level.Warn(n.info).Log("event", "rejected",
		"reason", reason.String(),
		"msg", msg.Digest.ShortRef(),
		"sender", msg.Sender,
		"cause", cause)
	return collapse.RejectedError{
		Reason: reason,
		Sender: msg.Sender,
		Digest: msg.Digest,
	}
}

// HasMessage reports whether this observer has accepted the digest.
// It implements message.History.
func (n *Node) HasMessage(digest collapse.Digest) bool {
	_, ok := n.byDigest[digest]
	return ok
}

// Get returns an accepted message by digest.
func (n *Node) Get(digest collapse.Digest) (collapse.Message, bool) {
	seq, ok := n.byDigest[digest]
	if !ok {
		return collapse.Message{}, false
	}
	v, err := n.receiveLog.Get(seq)
	if err != nil {
		return collapse.Message{}, false
	}
	return v.(collapse.Message), true
}

// Messages returns the inbox in acceptance order.
func (n *Node) Messages() ([]collapse.Message, error) {
	src, err := n.receiveLog.Query()
	if err != nil {
		return nil, errors.Wrap(err, "node: inbox query failed")
	}

	ctx := context.TODO()
	var msgs []collapse.Message
	for {
		v, err := src.Next(ctx)
		if luigi.IsEOS(err) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "node: inbox drain failed")
		}
		msgs = append(msgs, v.(collapse.Message))
	}
	return msgs, nil
}

// Last returns the most recently accepted message.
func (n *Node) Last() (collapse.Message, bool) {
	var msg collapse.Message

	sv, err := n.receiveLog.Seq().Value()
	if err != nil {
		return msg, false
	}
	seq, ok := sv.(margaret.Seq)
	if !ok || seq.Seq() < 0 {
		return msg, false
	}
	v, err := n.receiveLog.Get(seq)
	if err != nil {
		return msg, false
	}
	return v.(collapse.Message), true
}

// Retina looks up cached retina content by message digest.
func (n *Node) Retina(digest collapse.Digest) (collapse.RetinaBody, bool) {
	r, ok := n.retinas[digest]
	return r, ok
}

// Retinas returns all cached retina observations in acceptance order,
// ready for fusion.
func (n *Node) Retinas() []collapse.RetinaBody {
	out := make([]collapse.RetinaBody, 0, len(n.retinaOrder))
	for _, d := range n.retinaOrder {
		out = append(out, n.retinas[d])
	}
	return out
}

// DecayReputation applies one rehabilitation tick to the trust book.
func (n *Node) DecayReputation() {
	n.rep.Decay()
}

// Heal is a no-op. The shallow causal check means an observer that
// missed intermediate history cannot re-validate a message once its
// direct parent is absent; whether gaps should be repaired by history
// replay is an open protocol question. Poll-and-replay is the healing
// mechanism for now.
func (n *Node) Heal() {}

// Close releases resources registered with the node.
func (n *Node) Close() error {
	return n.closers.Close()
}
