package main

import (
	"github.com/btcsuite/btclog"

	"github.com/utreexolabs/forest/accumulator"
	cfgpkg "github.com/utreexolabs/forest/config"
	forestlog "github.com/utreexolabs/forest/log"
)

// app bundles the one Forest handle a forestctl invocation operates on,
// plus the options that produced it. Subcommands embed *app rather than
// reaching for package-level state.
//
// The forest itself is opened lazily, on the first call to forestHandle,
// because go-flags only populates opts from argv during parser.Parse --
// which runs after every subcommand has already been registered with a
// reference to this app. Opening eagerly in newApp would read opts before
// any --datadir/--debug flag on the command line had taken effect.
type app struct {
	opts   *options
	forest *accumulator.Forest
}

func newApp(opts *options) *app {
	return &app{opts: opts}
}

func (a *app) forestHandle() (*accumulator.Forest, error) {
	if a.forest != nil {
		return a.forest, nil
	}

	cfg := &cfgpkg.Config{
		DataDir:          a.opts.DataDir,
		ForestFilePrefix: cfgpkg.DefaultConfig.ForestFilePrefix,
		LogFilename:      cfgpkg.DefaultConfig.LogFilename,
	}

	level := btclog.LevelInfo
	if a.opts.Debug {
		level = btclog.LevelDebug
	}
	if err := forestlog.InitLogRotator(cfg.LogPath()); err != nil {
		return nil, err
	}
	forestlog.SetLevel("FRST", level)
	accumulator.UseLogger(forestlog.Logger("FRST"))

	f, err := accumulator.NewForest(cfg.ForestPath())
	if err != nil {
		return nil, err
	}
	a.forest = f
	return f, nil
}
