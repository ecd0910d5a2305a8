// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/vidfolio/internal/config"
	"github.com/ManuGH/vidfolio/internal/persistence/sqlite"
)

func runStorageCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStorageUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "verify":
		return runStorageVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printStorageUsage(os.Stderr)
		return 2
	}
}

func printStorageUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  vidfolio storage verify [--path PATH] [--mode quick|full]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Flags:")
	_, _ = fmt.Fprintln(w, "  --path string  SQLite catalog file (defaults to catalog.sqlitePath)")
	_, _ = fmt.Fprintln(w, "  --mode string  Verification mode: quick (default) or full")
}

func runStorageVerify(args []string) int {
	fs := flag.NewFlagSet("vidfolio storage verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var path, mode string
	fs.StringVar(&path, "path", "", "Path to the SQLite database file")
	fs.StringVar(&mode, "mode", "quick", "Verification mode: quick or full")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		fmt.Fprintf(os.Stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", mode)
		return 2
	}

	if path == "" {
		cfg, _, err := loadForCLI("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: --path not given and config unusable: %v\n", err)
			return 2
		}
		if cfg.Catalog.Backend != config.BackendSQLite {
			fmt.Fprintf(os.Stderr, "Error: catalog backend is %q, only sqlite can be verified\n", cfg.Catalog.Backend)
			return 2
		}
		path = cfg.Catalog.SQLitePath
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return doVerify(context.Background(), path, mode)
}

func doVerify(ctx context.Context, path, mode string) int {
	fmt.Fprintf(os.Stderr, "Verifying integrity of %s (mode: %s)...\n", path, mode)

	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification interrupted by system error: %v\n", err)
		return 1
	}
	defer db.Close()

	issues, err := sqlite.VerifyIntegrity(ctx, db, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification interrupted by system error: %v\n", err)
		return 1
	}

	if issues != nil {
		fmt.Fprintln(os.Stderr, "CORRUPTION DETECTED")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		return 1
	}

	fmt.Println("Integrity verified: ok")
	return 0
}
