// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/blobstore"
	"github.com/collapse-im/go-collapse/fuse"
	"github.com/collapse-im/go-collapse/internal/testutils"
	"github.com/collapse-im/go-collapse/membus"
	"github.com/collapse-im/go-collapse/message"
	"github.com/collapse-im/go-collapse/phi"
	"github.com/collapse-im/go-collapse/reputation"
)

func mkNode(t *testing.T, name collapse.Identity, bus collapse.Bus, opts ...Option) *Node {
	t.Helper()

	opts = append([]Option{WithInfo(testutils.NewRelativeTimeLogger(nil))}, opts...)
	n, err := New(message.BindSigner{ID: name}, bus, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, n.Close()) })
	return n
}

func TestRootTextFlow(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nb := mkNode(t, "B", bus)
	nc := mkNode(t, "C", bus)

	msg, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "hello   world"})
	r.NoError(err)
	r.Equal(collapse.TextBody{CanonicalText: "hello world"}, msg.Content)

	a.Equal(1, nb.Poll())
	a.Equal(1, nc.Poll())

	for _, n := range []*Node{na, nb, nc} {
		a.True(n.HasMessage(msg.Digest))
		msgs, err := n.Messages()
		r.NoError(err)
		r.Len(msgs, 1)
		a.Equal(msg, msgs[0])

		// one reward step over neutral, from each observer's own view
		a.InDelta(0.6, n.Reputation().Score("A"), 1e-9)
	}
}

func TestRetinaReply(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nb := mkNode(t, "B", bus)
	nc := mkNode(t, "C", bus)

	root, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "thread start"})
	r.NoError(err)
	r.Equal(1, nb.Poll())
	r.Equal(1, nc.Poll())

	reply, err := nb.Send(root.Digest, phi.RawCapture{
		Samples:   []phi.Sample{{X: 0.5, Y: 0.5, V: 0.7}},
		Lambda:    532,
		Foveation: collapse.FoveationSpec{Sigma: 0.2, CenterX: 0.5, CenterY: 0.5},
		Grid:      phi.GridSpec{NX: 16, NY: 16},
		Seed:      11,
	})
	r.NoError(err)

	a.Equal(1, na.Poll())
	a.Equal(1, nc.Poll())

	for _, n := range []*Node{na, nc} {
		a.True(n.HasMessage(reply.Digest))
		a.InDelta(0.6, n.Reputation().Score("B"), 1e-9)

		cached, ok := n.Retina(reply.Digest)
		r.True(ok, "accepted retina content must be cached")
		a.Equal(reply.Content, collapse.Content(cached))
	}
}

func TestOrphanIsRejectedEverywhere(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nb := mkNode(t, "B", bus)
	nc := mkNode(t, "C", bus)

	orphan, err := message.ComputeDigest(collapse.TextBody{CanonicalText: "never sent"})
	r.NoError(err)

	// the send itself succeeds; judgment is each observer's own
	_, err = nc.Send(orphan, phi.DraftText{Raw: "out of thin air"})
	r.NoError(err)

	a.Equal(0, na.Poll())
	a.Equal(0, nb.Poll())

	for _, n := range []*Node{na, nb} {
		msgs, err := n.Messages()
		r.NoError(err)
		a.Empty(msgs, "rejected messages are never stored")
		a.InDelta(0.3, n.Reputation().Score("C"), 1e-9, "one punish step below neutral")
	}

	// the sender judged its own message by the same rules
	a.InDelta(0.3, nc.Reputation().Score("C"), 1e-9)
}

func TestTamperedMessagePunishesClaimedSender(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	nb := mkNode(t, "B", bus)

	msg, err := message.Assemble(message.BindSigner{ID: "A"}, collapse.ZeroDigest,
		collapse.TextBody{CanonicalText: "pay bob 1"}, collapse.Now())
	r.NoError(err)
	msg.Content = collapse.TextBody{CanonicalText: "pay bob 100"}

	bus.SendTo("B", msg)
	a.Equal(0, nb.Poll())
	a.False(nb.HasMessage(msg.Digest))
	a.InDelta(0.3, nb.Reputation().Score("A"), 1e-9)
}

func TestTrustGateBlocksDistrustedSender(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nc := mkNode(t, "C", bus)

	orphan, err := message.ComputeDigest(collapse.TextBody{CanonicalText: "gone"})
	r.NoError(err)

	// two orphans drive C to 0.1, below the 0.30 admission threshold
	for i := 0; i < 2; i++ {
		_, err = nc.Send(orphan, phi.DraftText{Raw: "junk"})
		r.NoError(err)
	}
	r.Equal(0, na.Poll())
	r.InDelta(0.1, na.Reputation().Score("C"), 1e-9)

	// a perfectly valid root is now rejected on trust alone
	_, err = nc.Send(collapse.ZeroDigest, phi.DraftText{Raw: "please believe me"})
	r.NoError(err)
	a.Equal(0, na.Poll())
	a.InDelta(0.0, na.Reputation().Score("C"), 1e-9, "the rejection itself punishes further")

	// rehabilitation ticks move C back toward neutral, eventually
	// clearing the gate again
	for i := 0; i < 20; i++ {
		na.DecayReputation()
	}
	a.Greater(na.Reputation().Score("C"), 0.3)
	_, err = nc.Send(collapse.ZeroDigest, phi.DraftText{Raw: "second chance"})
	r.NoError(err)
	a.Equal(1, na.Poll())
}

func TestAckReceiptsAreCausalMessages(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nb := mkNode(t, "B", bus)

	root, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "seen yet?"})
	r.NoError(err)
	r.Equal(1, nb.Poll())

	delivered, err := nb.AckDelivered(root.Digest)
	r.NoError(err)
	read, err := nb.AckRead(root.Digest)
	r.NoError(err)

	a.Equal(root.Digest, delivered.Parent, "receipts reference the acknowledged digest as parent")
	a.Equal(2, na.Poll())

	msgs, err := na.Messages()
	r.NoError(err)
	r.Len(msgs, 3)

	status, ok := msgs[2].Content.(collapse.StatusEvent)
	r.True(ok)
	a.Equal(collapse.StatusRead, status.Kind)
	r.NotNil(status.DigestAck)
	a.True(status.DigestAck.Equal(root.Digest))
	a.Equal(read.Digest, msgs[2].Digest)
}

func TestTwoFixationsFuseToHalf(t *testing.T) {
	r := require.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)
	nb := mkNode(t, "B", bus)

	root, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "look at this"})
	r.NoError(err)
	r.Equal(1, nb.Poll())

	capture := func(seed uint64) phi.RawCapture {
		return phi.RawCapture{
			Samples:   []phi.Sample{{X: 0.5, Y: 0.5, V: 0.9}, {X: 0.4, Y: 0.6, V: 0.5}},
			Lambda:    550,
			Foveation: collapse.FoveationSpec{Sigma: 0.2, CenterX: 0.5, CenterY: 0.5},
			Grid:      phi.GridSpec{NX: 16, NY: 16},
			Seed:      seed,
		}
	}

	_, err = nb.Send(root.Digest, capture(1))
	r.NoError(err)
	_, err = nb.Send(root.Digest, capture(2))
	r.NoError(err)

	r.Equal(2, na.Poll())
	r.Len(na.Retinas(), 2)

	fused, err := fuse.Fixations(na.Retinas())
	r.NoError(err)
	r.NotNil(fused)
	r.Equal(0.5, fused.Fused.Cert.FusedVarianceDrop)
}

func TestBlobEvidenceRoundtrip(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	bus := membus.New()

	storeA, err := blobstore.New(t.TempDir())
	r.NoError(err)
	na := mkNode(t, "A", bus, WithBlobStore(storeA))
	nb := mkNode(t, "B", bus)

	msg, err := na.Send(collapse.ZeroDigest, phi.BlobEvidence{
		Bytes: []byte("cat picture"),
		MIME:  "image/jpeg",
	})
	r.NoError(err)

	body, ok := msg.Content.(collapse.BlobBody)
	r.True(ok)
	a.EqualValues(11, body.Size)

	// the descriptor travels; the bytes stay in the sender's store
	r.Equal(1, nb.Poll())
	got, ok := nb.Get(msg.Digest)
	r.True(ok)
	a.Equal(msg.Content, got.Content)

	sz, err := na.BlobStore().Size(body.ObjectDigest)
	r.NoError(err)
	a.EqualValues(11, sz)
}

func TestLastAndGet(t *testing.T) {
	r := require.New(t)

	bus := membus.New()
	na := mkNode(t, "A", bus)

	_, ok := na.Last()
	r.False(ok, "empty inbox has no last message")

	first, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "one"})
	r.NoError(err)
	second, err := na.Send(first.Digest, phi.DraftText{Raw: "two"})
	r.NoError(err)

	last, ok := na.Last()
	r.True(ok)
	r.Equal(second.Digest, last.Digest)

	got, ok := na.Get(first.Digest)
	r.True(ok)
	r.Equal(first, got)

	_, ok = na.Get(collapse.Digest{99})
	r.False(ok)
}

func TestSendWithCustomReputation(t *testing.T) {
	r := require.New(t)

	bus := membus.New()
	book := reputation.NewBook(reputation.WithRewardStep(0.01))
	na := mkNode(t, "A", bus, WithReputation(book))

	_, err := na.Send(collapse.ZeroDigest, phi.DraftText{Raw: "tiny steps"})
	r.NoError(err)
	r.InDelta(0.51, book.Score("A"), 1e-9)
}
