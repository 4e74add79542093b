package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/histrank/canon/internal/config"
	"github.com/histrank/canon/internal/resolve"
	"github.com/histrank/canon/internal/store"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "aliases":
		err = runAliases(os.Args[2:])
	case "resolve":
		err = runResolve(os.Args[2:])
	case "duplicates":
		err = runDuplicates(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "consensus":
		err = runConsensus(os.Args[2:])
	case "run":
		err = runPipeline(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("canon %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// splitFlags separates "--flag value" / "--flag" pairs from positional
// arguments. Boolean flags are the ones listed in boolFlags.
func splitFlags(args []string, boolFlags map[string]bool) (map[string]string, []string, error) {
	flags := map[string]string{}
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if boolFlags[name] {
			flags[name] = "true"
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag --%s requires a value", name)
		}
		i++
		flags[name] = args[i]
	}
	return flags, positional, nil
}

// resolveSettings layers config file, environment, and the common CLI
// flags shared by every command.
func resolveSettings(flags map[string]string) (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath:   flags["config"],
		CLIDBPath:    flags["db"],
		CLICompounds: flags["compounds"],
		CLISeeds:     flags["seeds"],
		CLIDir:       flags["dir"],
		CLIWindow:    flags["window"],
		CLIAutoMerge: flags["auto-merge"],
	})
}

func openStore(cfg config.ResolvedConfig) (store.Store, error) {
	s, err := store.NewStore(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// loadCompounds reads the configured compound-name overrides; no
// configured path means no compounds, not an error.
func loadCompounds(cfg config.ResolvedConfig) (map[string][]string, error) {
	if cfg.CompoundsPath.Value == "" {
		return nil, nil
	}
	return resolve.LoadCompounds(cfg.CompoundsPath.Value)
}

func printUsage() {
	fmt.Printf(`canon %s — Entity resolution and consensus ranking for historical figures

Usage:
  canon <command> [arguments]

Commands:
  import figures <file>    Bulk-import a figure dataset (upsert by id)
  import rankings <file>   Import one source's ranking file
  aliases seed [<file>]    Load alias seed pairs into the catalog
  resolve <name>           Resolve a raw name through the alias cascade
  duplicates               Detect likely duplicate figure pairs
  merge                    Merge confirmed duplicates
  consensus [figureID]     Recompute consensus ranks and variance
  run                      Full pipeline: seed, import, consensus, detect, merge
  stats                    Catalog statistics
  serve                    MCP server on stdio
  version                  Print version

Common Flags:
  --db <path>              Database path (default ~/.canon/canon.db)
  --config <path>          Config file (default ~/.canon/config.yaml)
  --compounds <path>       Compound-name overrides (yaml)

Import Flags:
  --source <id>            Ranking source identifier (required)
  --sample <id>            Sample id within the source (required)
  -n, --dry-run            Resolve and report without writing

Duplicates/Run Flags:
  --window <K>             Detection window, most prominent first
  --json                   Machine-readable report
  --dir <path>             Directory of ranking files (run)
  --auto-merge             Apply the safe-pair report without review
  --seeds <path>           Alias seed file

Merge Flags:
  --safe                   Merge the current safe-pair report
  -n, --dry-run            Report would-be survivors without writing
`, version)
}
