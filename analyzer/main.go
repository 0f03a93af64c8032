// Command analyzer fetches, scores and validates club sentiment batches from
// the terminal.
//
// Usage:
//
//	analyzer fetch    -source reddit -scope club
//	analyzer analyze  -batch club-subreddits
//	analyzer run      -source news -scope general
//	analyzer validate -file labelled.csv
//	analyzer export   -batch club-news -out club-news-scored.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/pipeline"
	"github.com/DeafMist/club-pulse/internal/report"
)

const usage = `analyzer: club sentiment pipeline CLI

Usage:
  analyzer <command> [flags]

Commands:
  fetch       Refresh one batch from Reddit or the news feeds
  analyze     Score a stored batch and print the sentiment breakdown
  run         fetch followed by analyze
  validate    Measure the scorer against a manually labelled CSV
  export      Write a scored batch as CSV for manual labelling

Environment:
  DATA_DIR        Corpus directory (default: data)
  CATALOG_PATH    YAML file with subreddits, feeds, keywords and source rules
  LOG_LEVEL       debug|info|warn|error

Run 'analyzer <command> -h' for command-specific help.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cmd, rest := args[0], args[1:]
	env := &cliEnv{
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
		log:    logger.NewWithWriter("analyzer", stderr),
	}

	var err error
	switch cmd {
	case "fetch":
		err = env.runFetch(rest)
	case "analyze":
		err = env.runAnalyze(rest)
	case "run":
		err = env.runRun(rest)
	case "validate":
		err = env.runValidate(rest)
	case "export":
		err = env.runExport(rest)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "analyzer: unknown command %q\n\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}

	env.close()
	if err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintln(stderr, report.Error(pipeline.UserMessage(err)))
		return 1
	}
	return 0
}
