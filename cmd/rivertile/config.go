package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/rivertile/internal/config"
	"github.com/1broseidon/rivertile/internal/layout"
)

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  rivertile config validate [--config PATH]")
		fmt.Fprintln(os.Stderr, "  rivertile config print [--config PATH] [--defaults]")
		return layout.ExitUsage
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/rivertile/config.yaml)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		res, err := config.Load(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return layout.ExitFailure
		}
		if res.File == "" {
			fmt.Println("config: ok (no file, using defaults)")
		} else {
			fmt.Printf("config: ok (%s)\n", res.File)
		}
		return layout.ExitOK

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/rivertile/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := config.Load(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return layout.ExitFailure
			}
			cfg = res.Config
			for _, name := range slices.Sorted(maps.Keys(res.LayoutBases)) {
				if base := res.LayoutBases[name]; base != name {
					fmt.Printf("# layouts.%s inherits builtin:%s\n", name, base)
				}
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return layout.ExitFailure
		}
		fmt.Print(string(data))
		return layout.ExitOK

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return layout.ExitUsage
	}
}
