// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/message"
	"github.com/collapse-im/go-collapse/phi"
)

var demoCmd = &cli.Command{
	Name:   "demo",
	Usage:  "run the scripted three-party exchange",
	Action: runDemo,
}

// runDemo walks a fixed conversation: a root text, two fixation
// replies, delivered/read receipts and one orphaned message that
// everyone rejects. Good for eyeballing acceptance and trust behavior.
func runDemo(ctx *cli.Context) error {
	net, err := newNet(ctx)
	if err != nil {
		return err
	}
	defer net.close()

	if len(net.order) < 3 {
		return fmt.Errorf("demo wants three nodes, got %d", len(net.order))
	}
	a, b, c := net.order[0], net.order[1], net.order[2]

	fmt.Printf("--- %s opens the thread\n", a)
	check(net.sendText(a, "root", "hello   world from "+a))
	check(net.poll(b))
	check(net.poll(c))

	fmt.Printf("--- %s replies with two fixations\n", b)
	check(net.sendRetina(b, "last", 1))
	check(net.sendRetina(b, "last", 2))
	check(net.poll(a))
	check(net.poll(c))

	fmt.Printf("--- %s acknowledges\n", b)
	check(net.ack(b, "last", "delivered"))
	check(net.ack(b, "last", "read"))
	check(net.poll(a))
	check(net.poll(c))

	fmt.Printf("--- %s claims an unknown parent\n", c)
	orphan, err := message.ComputeDigest(collapse.TextBody{CanonicalText: "never happened"})
	check(err)
	_, err = net.nodes[c].Send(orphan, phi.DraftText{Raw: "out of thin air"})
	check(err)
	check(net.poll(a))
	check(net.poll(b))

	for _, who := range net.order {
		fmt.Printf("--- inbox of %s\n", who)
		check(net.inbox(who))
		check(net.rep(who))
	}

	fmt.Printf("--- fusing %s's view of the fixations\n", a)
	return net.fuseAll(a)
}
