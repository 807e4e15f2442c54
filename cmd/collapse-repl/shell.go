// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v2"
)

var shellCmd = &cli.Command{
	Name:   "shell",
	Usage:  "interactive prompt against the in-process net",
	Action: runShell,
}

const shellHelp = `commands (node is a participant name):
  text <node> <parent> <body...>        send text (parent: root|last|&ref)
  retina <node> <parent> <seed>         send a synthetic fixation
  blob <node> <parent> <file> <mime>    store a file and send its descriptor
  blobget <node> <&ref> <outfile>       fetch a stored blob by digest
  ack <node> <digest> delivered|read    broadcast a receipt
  poll <node>                           drain and judge queued messages
  inbox <node>                          print accepted messages
  rep <node>                            print the trust book
  fuse <node>                           fuse all cached fixations
  decay <node>                          one rehabilitation tick
  dump <node>                           deep-dump the inbox
  quit`

func runShell(ctx *cli.Context) error {
	net, err := newNet(ctx)
	if err != nil {
		return err
	}
	defer net.close()

	fmt.Println("participants:", strings.Join(net.order, ", "))
	fmt.Println(shellHelp)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if err := dispatch(net, strings.Fields(scanner.Text())); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Println("error:", err)
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

var errQuit = fmt.Errorf("quit")

func dispatch(net *replNet, args []string) error {
	if len(args) == 0 {
		return nil
	}

	wrong := fmt.Errorf("wrong arguments for %q, try help", args[0])

	switch args[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Println(shellHelp)
		return nil
	case "text":
		if len(args) < 4 {
			return wrong
		}
		return net.sendText(args[1], args[2], strings.Join(args[3:], " "))
	case "retina":
		if len(args) != 4 {
			return wrong
		}
		seed, err := strconv.ParseUint(args[3], 10, 64)
		if err != nil {
			return err
		}
		return net.sendRetina(args[1], args[2], seed)
	case "blob":
		if len(args) != 5 {
			return wrong
		}
		return net.sendBlob(args[1], args[2], args[3], args[4])
	case "blobget":
		if len(args) != 4 {
			return wrong
		}
		return net.blobGet(args[1], args[2], args[3])
	case "ack":
		if len(args) != 4 {
			return wrong
		}
		return net.ack(args[1], args[2], args[3])
	case "poll":
		if len(args) != 2 {
			return wrong
		}
		return net.poll(args[1])
	case "inbox":
		if len(args) != 2 {
			return wrong
		}
		return net.inbox(args[1])
	case "rep":
		if len(args) != 2 {
			return wrong
		}
		return net.rep(args[1])
	case "fuse":
		if len(args) != 2 {
			return wrong
		}
		return net.fuseAll(args[1])
	case "decay":
		if len(args) != 2 {
			return wrong
		}
		return net.decay(args[1])
	case "dump":
		if len(args) != 2 {
			return wrong
		}
		return net.dump(args[1])
	}
	return fmt.Errorf("unknown command %q, try help", args[0])
}
