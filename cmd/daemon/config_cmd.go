// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/vidfolio/internal/config"
	"github.com/ManuGH/vidfolio/internal/version"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:])
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  vidfolio config init [--force] PATH")
	_, _ = fmt.Fprintln(w, "  vidfolio config validate [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  vidfolio config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigInit(args []string) int {
	fs := flag.NewFlagSet("vidfolio config init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one PATH is required")
		return 2
	}

	path := fs.Arg(0)
	if err := config.WriteDefault(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("wrote default configuration to %s\n", path)
	return 0
}

// loadForCLI loads and validates the config a subcommand points at.
func loadForCLI(file string) (config.AppConfig, string, error) {
	path := resolveConfigPath(file)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		return config.AppConfig{}, path, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.AppConfig{}, path, err
	}
	return cfg, path, nil
}

func describePath(path string) string {
	if path == "" {
		return "environment and defaults"
	}
	return path
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("vidfolio config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	_, path, err := loadForCLI(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", describePath(path), err)
		return 1
	}
	fmt.Printf("%s is valid\n", describePath(path))
	return 0
}

func runConfigDump(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("vidfolio config dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, path, err := loadForCLI(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", describePath(path), err)
		return 1
	}

	// String masks secrets; the JSON form is derived from it so both agree.
	masked := cfg.String()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		_, _ = io.WriteString(out, masked)
		return 0
	case "json":
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(masked), &doc); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to decode config: %v\n", err)
			return 1
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}
