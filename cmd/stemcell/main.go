// Package main provides the stemcell CLI tool.
//
// Usage:
//
//	stemcell <command> [arguments]
//
// Commands:
//
//	expand      Resolve launch metadata for a role
//	defaults    Print the built-in default option table
//	help        Show help for a command
//	version     Show version information
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/remotesyssupport/stemcell"
	"gopkg.in/yaml.v3"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "expand":
		if err := runExpand(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			if errors.Is(err, stemcell.ErrEmptyRole) {
				fmt.Fprintln(os.Stderr, "hint: pass -allow-empty for a defaults-only expansion")
			}
			os.Exit(1)
		}
	case "defaults":
		if err := printDefaults(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "help":
		if len(args) > 0 {
			printCommandHelp(args[0])
		} else {
			printUsage()
		}
	case "version":
		fmt.Printf("stemcell version %s\n", version)
	case "-h", "--help":
		printUsage()
	case "-v", "--version":
		fmt.Printf("stemcell version %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

// overrideFlags collects repeated -o key=value flags.
// Values are parsed as YAML scalars so numbers and booleans come through
// typed ("-o spot_price=0.22" yields a float, not a string).
type overrideFlags map[string]any

func (o overrideFlags) String() string {
	pairs := make([]string, 0, len(o))
	for k, v := range o {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, ",")
}

func (o overrideFlags) Set(s string) error {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" {
		return fmt.Errorf("override must have the form key=value, got %q", s)
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	o[key] = parsed
	return nil
}

func runExpand(args []string) error {
	fs := flag.NewFlagSet("expand", flag.ExitOnError)
	root := fs.String("root", ".", "metadata repository root")
	configFile := fs.String("config", "config.yml", "configuration file name, relative to root")
	env := fs.String("env", "production", "target environment")
	allowEmpty := fs.Bool("allow-empty", false, "allow roles with no declared metadata")
	output := fs.String("format", "yaml", "output format: yaml or json")
	overrides := make(overrideFlags)
	fs.Var(overrides, "o", "override option as key=value (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: stemcell expand [flags] ROLE")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expand requires exactly one ROLE argument")
	}
	role := fs.Arg(0)

	expander, err := stemcell.New(*root, *configFile)
	if err != nil {
		return err
	}

	var opts []stemcell.ExpandOption
	if *allowEmpty {
		opts = append(opts, stemcell.AllowEmptyRoles())
	}

	meta, err := expander.ExpandRole(context.Background(), role, *env, overrides, opts...)
	if err != nil {
		return err
	}
	return printMap(meta, *output)
}

func printDefaults() error {
	return printMap(stemcell.BuiltinDefaults(), "yaml")
}

func printMap(m map[string]any, format string) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func printUsage() {
	fmt.Println(`stemcell - layered instance launch metadata resolution

Usage:
  stemcell <command> [arguments]

Commands:
  expand      Resolve launch metadata for a role
  defaults    Print the built-in default option table
  help        Show help for a command
  version     Show version information

Use "stemcell help <command>" for more information about a command.`)
}

func printCommandHelp(cmd string) {
	switch cmd {
	case "expand":
		fmt.Println(`usage: stemcell expand [flags] ROLE

Resolves the full launch metadata for ROLE by merging built-in defaults,
the site configuration file, backing-store options, the role's declared
metadata, and any -o overrides, in that order of precedence.

Flags:
  -root DIR        metadata repository root (default ".")
  -config FILE     configuration file name, relative to root (default "config.yml")
  -env ENV         target environment (default "production")
  -o key=value     override option, highest precedence (repeatable)
  -allow-empty     allow roles with no declared metadata
  -format FMT      output format: yaml or json (default "yaml")`)
	case "defaults":
		fmt.Println(`usage: stemcell defaults

Prints the built-in default option table that forms the floor of every
expansion.`)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		os.Exit(1)
	}
}
