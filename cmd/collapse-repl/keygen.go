// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v2"

	"github.com/collapse-im/go-collapse/keys"
)

var keygenCmd = &cli.Command{
	Name:      "keygen",
	Usage:     "mint an ed25519 secret for a participant",
	ArgsUsage: "<name>",
	Action: func(ctx *cli.Context) error {
		name := ctx.Args().First()
		if name == "" {
			return fmt.Errorf("keygen: need a participant name")
		}

		dir := filepath.Join(conf.Repo, name)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}

		kp, err := keys.NewKeyPair(nil)
		if err != nil {
			return err
		}

		path := filepath.Join(dir, "secret")
		if err := keys.SaveKeyPair(kp, path); err != nil {
			return err
		}

		fmt.Printf("wrote %s\nidentity: %s\n", path, kp.ID)
		return nil
	},
}
