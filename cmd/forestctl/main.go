// Command forestctl is a thin CLI around the accumulator package: it opens
// one forest rooted at a configurable data directory and runs a single
// subcommand against it. There is no global accumulator singleton -- every
// subcommand receives the *accumulator.Forest it should act on explicitly.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/utreexolabs/forest/config"
)

type options struct {
	DataDir string `short:"d" long:"datadir" description:"Directory to store the forest snapshot and logs in"`
	Debug   bool   `long:"debug" description:"Enable debug-level logging"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "forestctl:", err)
		os.Exit(1)
	}
}

func run() error {
	opts := options{DataDir: config.DefaultConfig.DataDir}
	parser := flags.NewParser(&opts, flags.Default)

	app := newApp(&opts)

	parser.AddCommand("add", "Add one or more leaves", "Adds leaves computed from the given strings to the forest.", &addCmd{app: app})
	parser.AddCommand("del", "Delete one or more leaves", "Deletes leaves computed from the given strings from the forest.", &delCmd{app: app})
	parser.AddCommand("commit", "Persist the forest", "Atomically snapshots the current leaf set to disk.", &commitCmd{app: app})
	parser.AddCommand("empty", "Reset the forest", "Discards all leaves and any persisted snapshot.", &emptyCmd{app: app})
	parser.AddCommand("stats", "Print forest statistics", "Prints leaf count, row count and lifetime hash count.", &statsCmd{app: app})

	_, err := parser.Parse()
	return err
}
