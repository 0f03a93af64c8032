package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/DeafMist/club-pulse/internal/app"
	"github.com/DeafMist/club-pulse/internal/config"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/report"
	"github.com/DeafMist/club-pulse/internal/validation"
)

// errUsage means the flag set already printed what went wrong.
var errUsage = errors.New("usage")

type cliEnv struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	rt     *app.Runtime
}

func (e *cliEnv) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func (e *cliEnv) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// runtime loads configuration and wires the pipeline on first use.
func (e *cliEnv) runtime() (*app.Runtime, error) {
	if e.rt != nil {
		return e.rt, nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.LoadAnalyzer()
	if err != nil {
		return nil, err
	}
	e.rt, err = app.Build(e.ctx, cfg.Common, e.log)
	return e.rt, err
}

func (e *cliEnv) close() {
	if e.rt == nil {
		return
	}
	if err := e.rt.Close(); err != nil {
		e.log.Warn("close runtime", slog.Any("err", err))
	}
}

func (e *cliEnv) runFetch(args []string) error {
	fs := e.flagSet("fetch")
	src := fs.String("source", "reddit", "reddit or news")
	scope := fs.String("scope", "club", "club or general")
	asJSON := fs.Bool("json", false, "print JSON instead of a panel")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	rt, err := e.runtime()
	if err != nil {
		return err
	}
	res, err := rt.Pipeline.Fetch(e.ctx, models.Source(*src), models.Scope(*scope))
	if err != nil {
		return err
	}

	if *asJSON {
		return e.printJSON(res)
	}
	fmt.Fprintln(e.stdout, report.Sources(*res))
	return nil
}

func (e *cliEnv) runAnalyze(args []string) error {
	fs := e.flagSet("analyze")
	batch := fs.String("batch", string(models.ClubSubreddits), "batch key to analyze")
	asJSON := fs.Bool("json", false, "print JSON instead of a panel")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	key, err := models.ParseBatchKey(*batch)
	if err != nil {
		return err
	}
	rt, err := e.runtime()
	if err != nil {
		return err
	}
	a, err := rt.Pipeline.Analyze(e.ctx, key)
	if err != nil {
		return err
	}

	if *asJSON {
		return e.printJSON(a)
	}
	fmt.Fprintln(e.stdout, report.Breakdown(string(key), a.Breakdown))
	return nil
}

func (e *cliEnv) runRun(args []string) error {
	fs := e.flagSet("run")
	src := fs.String("source", "reddit", "reddit or news")
	scope := fs.String("scope", "club", "club or general")
	asJSON := fs.Bool("json", false, "print JSON instead of panels")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	rt, err := e.runtime()
	if err != nil {
		return err
	}
	res, err := rt.Pipeline.Run(e.ctx, models.Source(*src), models.Scope(*scope))
	if err != nil {
		return err
	}

	if *asJSON {
		return e.printJSON(res)
	}
	fmt.Fprintln(e.stdout, report.Sources(res.Fetch))
	fmt.Fprintln(e.stdout, report.Breakdown(string(res.Fetch.Key), res.Analysis.Breakdown))
	return nil
}

func (e *cliEnv) runValidate(args []string) error {
	fs := e.flagSet("validate")
	path := fs.String("file", "", "CSV with text, label and manual_label columns (required)")
	asJSON := fs.Bool("json", false, "print JSON instead of panels")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(e.stderr, "validate: -file is required")
		fs.Usage()
		return errUsage
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	rt, err := e.runtime()
	if err != nil {
		return err
	}
	res, err := rt.Pipeline.Validate(e.ctx, f)
	if err != nil {
		var inputErr *validation.ValidationInputError
		if errors.As(err, &inputErr) && inputErr.Predicted != nil {
			if *asJSON {
				_ = e.printJSON(map[string]any{"predicted": inputErr.Predicted})
			} else {
				fmt.Fprintln(e.stdout, report.Breakdown("Predicted labels", *inputErr.Predicted))
			}
		}
		return err
	}

	if *asJSON {
		return e.printJSON(res)
	}
	fmt.Fprintln(e.stdout, report.Evaluation(res))
	return nil
}

func (e *cliEnv) runExport(args []string) error {
	fs := e.flagSet("export")
	batch := fs.String("batch", string(models.ClubSubreddits), "batch key to export")
	out := fs.String("out", "", "output file (default: stdout)")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	key, err := models.ParseBatchKey(*batch)
	if err != nil {
		return err
	}
	rt, err := e.runtime()
	if err != nil {
		return err
	}

	if *out == "" {
		n, err := rt.Pipeline.Export(e.ctx, key, e.stdout)
		if err != nil {
			return err
		}
		e.log.Info("batch exported", slog.String("batch", string(key)), slog.Int("rows", n))
		return nil
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := rt.Pipeline.Export(e.ctx, key, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	e.log.Info("batch exported", slog.String("batch", string(key)), slog.String("file", *out), slog.Int("rows", n))
	return nil
}

func (e *cliEnv) printJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
