// cmd/preflight/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/pong/internal/config"
	"github.com/hamed0406/pong/internal/probe"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	configFile := flag.String("config", config.DefaultPath, "path to the YAML settings file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("settings file " + *configFile + " is not valid")
	}
	ok(fmt.Sprintf("%s: %d group(s), %d task(s)", *configFile, len(cfg.TaskGroups), cfg.TaskCount()))
	ok("listen on " + strings.Join(cfg.Addrs(), ", "))

	if len(cfg.WebServer.Tokens) == 0 {
		warn("web-server.tokens empty — /metrics and /api are open to anyone who can reach them.")
	}

	// Build every probe exactly as the scheduler would; this resolves
	// hosts and parses URNs without sending anything.
	failed := false
	for i, g := range cfg.Groups() {
		if g.Timeout >= g.Interval {
			warn(fmt.Sprintf("group %d: timeout %s >= interval %s; cycles will run back to back when targets hang", i, g.Timeout, g.Interval))
		}
		for _, t := range g.Tasks {
			p, err := probe.New(context.Background(), t, g.Timeout)
			if err != nil {
				failed = true
				fmt.Fprintln(os.Stderr, "✖", err)
				continue
			}
			ok(fmt.Sprintf("group %d: %s %s", i, p.Name(), p.Target()))
		}
	}
	if failed {
		fail("some targets cannot be resolved")
	}

	ok("preflight passed")
}
