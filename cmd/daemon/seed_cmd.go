// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/daemon"
)

var errNotSeedable = errors.New("catalog backend is read-only")

func runSeedCLI(args []string) int {
	fs := flag.NewFlagSet("vidfolio seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "config", "", "path to YAML configuration file")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(os.Stderr, "Usage:")
		_, _ = fmt.Fprintln(os.Stderr, "  vidfolio seed [--config config.yaml] FIXTURE.yaml")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, path, err := loadForCLI(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", describePath(path), err)
		return 1
	}

	if err := seed(context.Background(), cfg.Catalog.Backend, fs.Arg(0), func(ctx context.Context) (catalog.Store, error) {
		s, _, err := daemon.OpenStore(ctx, cfg)
		return s, err
	}, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		return 1
	}
	return 0
}

// seed loads the fixture before opening the store so a bad file never touches it.
func seed(ctx context.Context, backend, fixture string, open func(context.Context) (catalog.Store, error), out io.Writer) error {
	f, err := catalog.LoadFixture(fixture)
	if err != nil {
		return err
	}

	store, err := open(ctx)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	seeder, ok := store.(catalog.Seeder)
	if !ok {
		return fmt.Errorf("%w: %s", errNotSeedable, backend)
	}
	res, err := catalog.Seed(ctx, seeder, f)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "seeded %d categories and %d videos into %s\n", res.Categories, res.Videos, backend)
	return nil
}
