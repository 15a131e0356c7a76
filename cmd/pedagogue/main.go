// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/pedagogue"
	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/config"
	"github.com/poiesic/pedagogue/evaluation"
	"github.com/poiesic/pedagogue/ingestion"
	"github.com/poiesic/pedagogue/report"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// errPartial marks a command that finished but skipped some items.
var errPartial = errors.New("partial failure")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newApp().RunContext(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status:
// 0 on success, 2 when some items were skipped and 1 for everything else,
// configuration and credential errors included.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errPartial):
		return 2
	default:
		return 1
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pedagogue",
		Usage: "Evaluate the pedagogical quality of course material with language models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with provider credentials",
				Value: config.DefaultDotEnv,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this file after each command",
			},
		},
		Metadata: map[string]interface{}{},
		Before:   before,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Extract, segment and store every PDF below the courses directory",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "courses-dir",
						Usage: "Directory searched recursively for PDF files",
					},
					&cli.BoolFlag{
						Name:  "no-semantic",
						Usage: "Use heuristic segmentation only",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-segment courses that are already stored",
					},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "Score every section that has no evaluation for the model",
				Action: evaluateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "model",
						Usage: "Provider label tried first and stored with each evaluation (claude, gemini, openai)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Evaluate at most N sections (0 for all)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of sections evaluated in parallel",
					},
				},
			},
			{
				Name:   "report",
				Usage:  "Write aggregate scores as CSV and a PDF scorecard",
				Action: reportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "outputs",
						Usage: "Directory the reports are written to",
					},
				},
			},
			{
				Name:   "synthesize",
				Usage:  "Write a Markdown quality report for every evaluated course",
				Action: synthesizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "model",
						Usage: "Provider label that writes the reports (claude, gemini, openai)",
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Delete every stored course, section, evaluation and synthesis",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
			},
		},
	}
}

// before loads the configuration, applies the global flag overrides and
// configures logging.
func before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(levelStr string) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("%w: invalid log level %q: must be one of debug, info, warn, error", config.ErrInvalidConfig, levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func configFrom(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("%w: configuration not loaded", config.ErrInvalidConfig)
	}
	return cfg, nil
}

// withEngine opens an engine over cfg, runs fn and writes the metrics file
// whatever fn returns.
func withEngine(c *cli.Context, cfg *config.Config, fn func(*pedagogue.Engine) error) error {
	engine, err := pedagogue.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	err = fn(engine)
	if mErr := engine.WriteMetrics(); mErr != nil {
		slog.Error("failed to write metrics", "path", cfg.MetricsFile, "err", mErr)
	}
	return err
}

func ingestCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if c.IsSet("courses-dir") {
		cfg.CoursesDir = c.String("courses-dir")
	}
	if c.Bool("no-semantic") {
		cfg.Segment.Semantic = false
	}

	return withEngine(c, cfg, func(engine *pedagogue.Engine) error {
		pipeline, err := engine.NewIngestionPipeline(c.Context, ingestion.WithForce(c.Bool("force")))
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		defer pipeline.Release()

		fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DBPath)
		fmt.Fprintf(c.App.ErrWriter, "Courses: %s\n", cfg.CoursesDir)
		fmt.Fprintf(c.App.ErrWriter, "Semantic segmentation: %t\n\n", cfg.Segment.Semantic)

		summary, err := pipeline.Run(c.Context, cfg.CoursesDir)
		if summary != nil {
			fmt.Fprintf(c.App.Writer, "Found %d PDF files: %d ingested, %d already stored, %d failed, %d sections written\n",
				summary.Found, summary.Ingested, summary.Skipped, summary.Failed, summary.Sections)
		}
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		if summary.Partial() {
			return fmt.Errorf("%w: %d of %d files failed: %w", errPartial, summary.Failed, summary.Found, summary.Err())
		}
		return nil
	})
}

func evaluateCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if c.IsSet("model") {
		cfg.Evaluation.Model = c.String("model")
	}
	if c.IsSet("limit") {
		cfg.Evaluation.Limit = c.Int("limit")
	}
	if c.IsSet("concurrency") {
		cfg.Evaluation.Concurrency = c.Int("concurrency")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return withEngine(c, cfg, func(engine *pedagogue.Engine) error {
		orchestrator, err := engine.NewOrchestrator(c.Context,
			evaluation.WithProgress(c.App.ErrWriter, cfg.Evaluation.ProgressInterval))
		if err != nil {
			return err
		}
		defer orchestrator.Release()

		fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DBPath)
		fmt.Fprintf(c.App.ErrWriter, "Model: %s\n", orchestrator.Model())
		fmt.Fprintf(c.App.ErrWriter, "Concurrency: %d\n\n", cfg.Evaluation.Concurrency)

		summary, err := orchestrator.Run(c.Context)
		if summary != nil {
			printEvaluationSummary(c.App.Writer, summary)
		}
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		if summary.Partial() {
			return fmt.Errorf("%w: %d sections skipped", errPartial, summary.Skipped)
		}
		return nil
	})
}

func printEvaluationSummary(w io.Writer, summary *evaluation.Summary) {
	fmt.Fprintf(w, "Pending: %d, selected: %d, persisted: %d, duplicates: %d, skipped: %d\n",
		summary.Pending, summary.Selected, summary.Persisted, summary.Duplicates, summary.Skipped)

	kinds := make([]ai.FailureKind, 0, len(summary.Failures))
	for kind := range summary.Failures {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s failures: %d\n", kind, summary.Failures[kind])
	}
}

func reportCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if c.IsSet("outputs") {
		cfg.OutputDir = c.String("outputs")
	}

	return withEngine(c, cfg, func(engine *pedagogue.Engine) error {
		agg, err := engine.WriteReports(c.Context)
		if err != nil {
			return fmt.Errorf("report failed: %w", err)
		}

		for _, course := range agg.Courses {
			fmt.Fprintf(c.App.Writer, "%-40s %4d sections  overall %.2f\n",
				course.Filename, course.Sections, course.Means.Overall())
		}
		fmt.Fprintf(c.App.Writer, "Wrote %s and %s\n",
			filepath.Join(cfg.OutputDir, report.CSVFilename),
			filepath.Join(cfg.OutputDir, report.PDFFilename))
		return nil
	})
}

func synthesizeCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if c.IsSet("model") {
		cfg.Evaluation.Model = c.String("model")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return withEngine(c, cfg, func(engine *pedagogue.Engine) error {
		aggregator, err := engine.NewAggregator(c.Context)
		if err != nil {
			return err
		}

		summary, err := aggregator.Run(c.Context)
		if summary != nil {
			fmt.Fprintf(c.App.Writer, "Courses: %d, synthesized: %d, without evaluations: %d, failed: %d\n",
				summary.Courses, summary.Synthesized, summary.Skipped, summary.Failed)
			fmt.Fprintf(c.App.Writer, "Reports in %s\n", cfg.OutputDir)
		}
		if err != nil {
			return fmt.Errorf("synthesis failed: %w", err)
		}
		if summary.Partial() {
			return fmt.Errorf("%w: %d courses failed: %w", errPartial, summary.Failed, summary.Err())
		}
		return nil
	})
}

func resetCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}

	if !c.Bool("yes") {
		prompt := fmt.Sprintf("Delete every course, section, evaluation and synthesis in %s?", cfg.DBPath)
		if !confirm(c.App.Reader, c.App.ErrWriter, prompt) {
			fmt.Fprintln(c.App.Writer, "Aborted.")
			return nil
		}
	}

	return withEngine(c, cfg, func(engine *pedagogue.Engine) error {
		if err := engine.Reset(c.Context); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Fprintln(c.App.Writer, "Store cleared.")
		return nil
	})
}

// confirm asks a y/N question and reports whether the answer was yes.
func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
