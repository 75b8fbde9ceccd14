package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bobmcallan/thesis/internal/app"
	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const usage = `thesis - investment thesis report generator

Usage:
  thesis run <TICKER> [-force]     Generate a report for a ticker
  thesis cache stats               Show cache statistics
  thesis cache clear [TICKER]      Clear the cache, or one ticker's entries
  thesis version                   Print version information

Flags:
  -config <path>   Config file path (default: thesis.toml next to the binary)
  -output <dir>    Output directory override
`

func main() {
	configPath := flag.String("config", "", "config file path")
	outputDir := flag.String("output", "", "output directory override")
	force := flag.Bool("force", false, "bypass the cache and refetch all data")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "version" {
		common.LoadVersionFromFile()
		fmt.Println(common.GetFullVersion())
		return
	}

	if *outputDir != "" {
		os.Setenv("THESIS_OUTPUT_DIR", *outputDir)
	}

	ctx := context.Background()
	a, err := app.NewApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
		os.Exit(1)
	}

	var code int
	switch args[0] {
	case "run":
		code = runReport(ctx, a, args[1:], *force)
	case "cache":
		code = runCache(ctx, a, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "thesis: unknown command %q\n\n", args[0])
		flag.Usage()
		code = 2
	}
	a.Close()
	os.Exit(code)
}

func runReport(ctx context.Context, a *app.App, args []string, force bool) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "thesis: run requires exactly one ticker")
		return 2
	}
	ticker, err := models.ValidateTicker(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
		return 2
	}

	report, doc, err := a.ReportService.GenerateReport(ctx, ticker, interfaces.ReportOptions{
		ForceRefresh: force,
		Progress: func(stage interfaces.PipelineStage, message string) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", stage, message)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
		return 1
	}

	if failed := report.FailedSections(); len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d section(s) failed to generate\n", len(failed))
	}
	fmt.Println(doc.PDFPath)
	return 0
}

func runCache(ctx context.Context, a *app.App, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "thesis: cache requires a subcommand: stats, clear")
		return 2
	}
	switch args[0] {
	case "stats":
		stats, err := a.Cache.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
			return 1
		}
		fmt.Printf("entries: %d\n", stats.Entries)
		for _, t := range stats.CachedTickers {
			fmt.Printf("  %s\n", t)
		}
		return 0
	case "clear":
		if len(args) > 1 {
			ticker, err := models.ValidateTicker(args[1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
				return 2
			}
			removed, err := a.Cache.PurgeTicker(ctx, ticker)
			if err != nil {
				fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
				return 1
			}
			fmt.Printf("removed %d entries for %s\n", removed, ticker)
			return 0
		}
		removed, err := a.Cache.Purge(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "thesis: %v\n", err)
			return 1
		}
		fmt.Printf("removed %d entries\n", removed)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "thesis: unknown cache subcommand %q\n", args[0])
		return 2
	}
}
