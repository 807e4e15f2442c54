// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	kitlog "github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	goon "github.com/shurcooL/go-goon"
	cli "github.com/urfave/cli/v2"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/blobstore"
	"github.com/collapse-im/go-collapse/fuse"
	"github.com/collapse-im/go-collapse/keys"
	"github.com/collapse-im/go-collapse/membus"
	"github.com/collapse-im/go-collapse/message"
	"github.com/collapse-im/go-collapse/node"
	"github.com/collapse-im/go-collapse/phi"
	"github.com/collapse-im/go-collapse/reputation"
)

// replNet is a fully connected set of participants on one memory bus.
type replNet struct {
	bus   *membus.Bus
	nodes map[string]*node.Node
	order []string
}

func newNet(ctx *cli.Context) (*replNet, error) {
	net := &replNet{
		bus:   membus.New(),
		nodes: make(map[string]*node.Node),
	}

	for _, name := range strings.Split(ctx.String("nodes"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		signer, err := signerFor(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "no signer for %s", name)
		}

		bs, err := blobstore.New(filepath.Join(conf.Repo, name, "blobs"))
		if err != nil {
			return nil, errors.Wrapf(err, "no blob store for %s", name)
		}

		n, err := node.New(signer, net.bus,
			node.WithInfo(kitlog.With(log, "node", name)),
			node.WithBlobStore(bs),
			node.WithReputation(reputation.NewBook(conf.bookOptions()...)),
			node.WithEventCounter(systemEvents.With("node", name)),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to start node %s", name)
		}

		net.nodes[name] = n
		net.order = append(net.order, name)
	}

	if len(net.order) == 0 {
		return nil, errors.New("need at least one node")
	}
	return net, nil
}

func signerFor(ctx *cli.Context, name string) (message.Signer, error) {
	if !ctx.Bool("ed25519") {
		return message.BindSigner{ID: collapse.Identity(name)}, nil
	}

	dir := filepath.Join(conf.Repo, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	secret := filepath.Join(dir, "secret")

	kp, err := keys.LoadKeyPair(secret)
	if err != nil {
		kp, err = keys.NewKeyPair(nil)
		if err != nil {
			return nil, err
		}
		if err := keys.SaveKeyPair(kp, secret); err != nil {
			return nil, err
		}
	}
	return kp.Signer(), nil
}

func (net *replNet) close() {
	for _, name := range net.order {
		if err := net.nodes[name].Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close %s: %s\n", name, err)
		}
	}
}

func (net *replNet) node(name string) (*node.Node, error) {
	n, ok := net.nodes[name]
	if !ok {
		return nil, errors.Errorf("no such node %q", name)
	}
	return n, nil
}

// parentFor resolves the parent selectors: root, last, or a digest ref.
func (net *replNet) parentFor(name, sel string) (collapse.Digest, error) {
	switch sel {
	case "root":
		return collapse.ZeroDigest, nil
	case "last":
		n, err := net.node(name)
		if err != nil {
			return collapse.ZeroDigest, err
		}
		if msg, ok := n.Last(); ok {
			return msg.Digest, nil
		}
		return collapse.ZeroDigest, nil
	default:
		return collapse.ParseDigest(sel)
	}
}

func (net *replNet) sendText(from, sel, body string) error {
	parent, err := net.parentFor(from, sel)
	if err != nil {
		return err
	}
	n, err := net.node(from)
	if err != nil {
		return err
	}
	msg, err := n.Send(parent, phi.DraftText{Raw: body})
	if err != nil {
		return err
	}
	fmt.Println("sent", msg.Digest.Ref())
	return nil
}

func (net *replNet) sendRetina(from, sel string, seed uint64) error {
	parent, err := net.parentFor(from, sel)
	if err != nil {
		return err
	}
	n, err := net.node(from)
	if err != nil {
		return err
	}

	// small deterministic capture, enough to light up the solver
	msg, err := n.Send(parent, phi.RawCapture{
		Samples: []phi.Sample{
			{X: 0.5, Y: 0.5, V: 0.9},
			{X: 0.6, Y: 0.5, V: 0.8},
		},
		Lambda:    550,
		Foveation: collapse.FoveationSpec{Sigma: 0.15, CenterX: 0.5, CenterY: 0.5},
		Grid:      phi.GridSpec{NX: 32, NY: 32},
		Seed:      seed,
	})
	if err != nil {
		return err
	}
	fmt.Println("sent", msg.Digest.Ref())
	return nil
}

func (net *replNet) sendBlob(from, sel, path, mime string) error {
	parent, err := net.parentFor(from, sel)
	if err != nil {
		return err
	}
	n, err := net.node(from)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s failed", path)
	}

	msg, err := n.Send(parent, phi.BlobEvidence{Bytes: data, MIME: mime})
	if err != nil {
		return err
	}
	body := msg.Content.(collapse.BlobBody)
	fmt.Printf("sent %s (%s as %s)\n", msg.Digest.Ref(), humanize.Bytes(uint64(body.Size)), body.ObjectDigest.ShortRef())
	return nil
}

func (net *replNet) blobGet(who, ref, outPath string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	if n.BlobStore() == nil {
		return errors.Errorf("node %s has no blob store", who)
	}

	digest, err := collapse.ParseDigest(ref)
	if err != nil {
		return err
	}

	rd, err := n.BlobStore().Get(digest)
	if err != nil {
		return err
	}
	defer rd.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create %s failed", outPath)
	}
	defer out.Close()

	copied, err := io.Copy(out, rd)
	if err != nil {
		return errors.Wrap(err, "blob copy failed")
	}
	fmt.Printf("wrote %s to %s\n", humanize.Bytes(uint64(copied)), outPath)
	return nil
}

func (net *replNet) ack(from, sel, kind string) error {
	digest, err := net.parentFor(from, sel)
	if err != nil {
		return err
	}
	n, err := net.node(from)
	if err != nil {
		return err
	}

	switch kind {
	case "delivered":
		_, err = n.AckDelivered(digest)
	case "read":
		_, err = n.AckRead(digest)
	default:
		return errors.Errorf("ack kind must be delivered|read, got %q", kind)
	}
	return err
}

func (net *replNet) poll(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	fmt.Printf("%s accepted %d\n", who, n.Poll())
	return nil
}

func (net *replNet) inbox(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	msgs, err := n.Messages()
	if err != nil {
		return err
	}

	for i, m := range msgs {
		fmt.Printf("#%d %s from %s\n", i, m.Digest.ShortRef(), m.Sender)
		switch c := m.Content.(type) {
		case collapse.TextBody:
			fmt.Println("  TEXT:", c.CanonicalText)
		case collapse.RetinaBody:
			fmt.Printf("  RETINA: omega=%s lambda=%g grid=%dx%d drop=%g\n",
				c.OmegaID, c.Lambda, c.BasisSpec.NX, c.BasisSpec.NY, c.Cert.FusedVarianceDrop)
		case collapse.StatusEvent:
			if c.DigestAck != nil {
				fmt.Printf("  STATUS: %s %s at %s\n", c.Kind, c.DigestAck.ShortRef(), c.At.Time().Format("15:04:05.000"))
			} else {
				fmt.Println("  STATUS:", c.Kind)
			}
		case collapse.BlobBody:
			fmt.Printf("  BLOB: %s %s -> %s\n", c.MIME, humanize.Bytes(uint64(c.Size)), c.ObjectDigest.ShortRef())
		}
	}
	return nil
}

func (net *replNet) rep(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	book := n.Reputation()
	fmt.Printf("%s admits at >= %.2f\n", who, book.AdmitThreshold())
	for id, score := range book.Tracked() {
		fmt.Printf("  %-12s %.3f\n", id, score)
	}
	return nil
}

func (net *replNet) fuseAll(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}

	fused, err := fuse.Fixations(n.Retinas())
	if err != nil {
		return err
	}
	if fused == nil {
		fmt.Println("no fixations cached")
		return nil
	}
	fmt.Printf("fused %d fixations: drop=%g digest=%s\n",
		len(n.Retinas()), fused.Fused.Cert.FusedVarianceDrop, fused.Digest.Ref())
	return nil
}

func (net *replNet) decay(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	n.DecayReputation()
	return nil
}

func (net *replNet) dump(who string) error {
	n, err := net.node(who)
	if err != nil {
		return err
	}
	msgs, err := n.Messages()
	if err != nil {
		return err
	}
	goon.Dump(msgs)
	return nil
}
