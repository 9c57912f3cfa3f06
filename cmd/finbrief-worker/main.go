package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/worker"
)

// The worker is launched by the server, one process per briefing task. It
// exits zero only after the briefing artifact is in place; any failure exits
// non-zero with the reason on stderr, which the server surfaces through the
// task status endpoint.

var (
	configFile = flag.String("config", "", "Configuration file path")
	source     = flag.String("source", "announcements", "Data source to brief from")
	dateStart  = flag.String("date-start", "", "Window start date (YYYY-MM-DD, default today)")
	dateEnd    = flag.String("date-end", "", "Window end date (YYYY-MM-DD, default date-start)")
	output     = flag.String("output", "", "Briefing artifact output path (required)")
)

func main() {
	flag.Parse()

	if *output == "" {
		fmt.Fprintln(os.Stderr, "error: -output is required")
		os.Exit(2)
	}
	if *source != "announcements" {
		fmt.Fprintf(os.Stderr, "error: unsupported data source %q\n", *source)
		os.Exit(2)
	}

	start := *dateStart
	if start == "" {
		start = time.Now().Format("2006-01-02")
	}
	end := *dateEnd
	if end == "" {
		end = start
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat("finbrief.toml"); err == nil {
			path = "finbrief.toml"
		}
	}
	config, err := common.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Console-only logging: the supervisor captures this output and attaches
	// it to the task status when the worker fails.
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		OutputType:       models.OutputFormatLogfmt,
		DisableTimestamp: false,
	}).WithLevelFromString(config.Logging.Level)

	pipeline, err := worker.NewPipeline(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := pipeline.Run(context.Background(), start, end, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
