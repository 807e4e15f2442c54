// SPDX-License-Identifier: MIT

// collapse-repl drives a small in-process collapse messenger net: a
// scripted demo flow or an interactive shell over three fully
// connected participants.
package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/term"
	cli "github.com/urfave/cli/v2"
)

// Version and Build are set by ldflags
var (
	Version = "snapshot"
	Build   = ""
)

var (
	log  kitlog.Logger
	conf replConfig
)

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}

// Color by error type
func colorFn(keyvals ...interface{}) term.FgBgColor {
	for i := 1; i < len(keyvals); i += 2 {
		if _, ok := keyvals[i].(error); ok {
			return term.FgBgColor{Fg: term.Red}
		}
	}
	return term.FgBgColor{}
}

func main() {
	log = term.NewColorLogger(kitlog.NewSyncWriter(os.Stderr), kitlog.NewLogfmtLogger, colorFn)

	u, err := user.Current()
	check(err)
	defaultRepo := filepath.Join(u.HomeDir, ".collapse-go")

	app := cli.App{
		Name:    "collapse-repl",
		Usage:   "local collapse messenger playground",
		Version: Version,

		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Value: defaultRepo, Usage: "where blob stores and secrets live"},
			&cli.StringFlag{Name: "config", Value: "", Usage: "TOML config file (defaults to <repo>/config.toml)"},
			&cli.StringFlag{Name: "debuglis", Value: "", Usage: "listen addr for the prometheus debug server, empty disables"},
			&cli.StringFlag{Name: "nodes", Value: "A,B,C", Usage: "comma separated participant names"},
			&cli.BoolFlag{Name: "ed25519", Usage: "sign with real keypairs (kept under <repo>/<name>/secret) instead of the bind scheme"},
		},

		Before: initConfig,
		Commands: []*cli.Command{
			demoCmd,
			shellCmd,
			keygenCmd,
		},
	}

	check(app.Run(os.Args))
}

func initConfig(ctx *cli.Context) error {
	cfgPath := ctx.String("config")
	if cfgPath == "" {
		cfgPath = filepath.Join(ctx.String("repo"), "config.toml")
	}
	conf = loadConfig(cfgPath)

	if conf.Repo == "" {
		conf.Repo = ctx.String("repo")
	}
	if conf.MetricsAddress == "" {
		conf.MetricsAddress = ctx.String("debuglis")
	}
	if conf.MetricsAddress != "" {
		startDebug(conf.MetricsAddress)
	}
	return nil
}
