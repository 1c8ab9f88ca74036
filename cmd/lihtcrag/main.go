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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/lihtcrag"
	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/ingestion"
	"github.com/poiesic/lihtcrag/reembed"
	"github.com/poiesic/lihtcrag/search"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lihtcrag",
		Usage: "Unified federal and state LIHTC regulatory search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "index-dir",
				Usage: "Directory holding the precomputed index files",
			},
			&cli.StringFlag{
				Name:  "vector-db",
				Usage: "Path to the state chunk BadgerDB directory",
			},
			&cli.BoolFlag{
				Name:  "no-vector",
				Usage: "Disable the state chunk store and vector search",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a unified search across federal and state sources",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "namespace",
						Usage: "Source population: federal, state or unified",
					},
					&cli.StringFlag{
						Name:  "ranking",
						Usage: "Result order: authority_first, chronological or relevance",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json or markdown",
						Value:   search.FormatJSON,
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print each search stage to stderr",
					},
					limitFlag(),
					stateFlag(),
				},
			},
			{
				Name:      "authority",
				Usage:     "Search chunks filed under specific authority levels",
				ArgsUsage: "QUERY",
				Action:    authorityCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "level",
						Usage:    "Authority level to search (repeatable)",
						Required: true,
					},
					limitFlag(),
				},
			},
			{
				Name:      "dates",
				Usage:     "Search chunks by effective date range",
				ArgsUsage: "QUERY",
				Action:    datesCommand,
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:   "from",
						Usage:  "Earliest effective date (YYYY-MM-DD)",
						Layout: dateLayout,
					},
					&cli.TimestampFlag{
						Name:   "to",
						Usage:  "Latest effective date (YYYY-MM-DD)",
						Layout: dateLayout,
					},
					limitFlag(),
				},
			},
			{
				Name:      "mappings",
				Usage:     "List federal provisions and the states implementing them",
				ArgsUsage: "QUERY",
				Action:    mappingsCommand,
				Flags:     []cli.Flag{limitFlag(), stateFlag()},
			},
			{
				Name:      "conflicts",
				Usage:     "Run a unified search with conflict analysis",
				ArgsUsage: "QUERY",
				Action:    conflictsCommand,
				Flags:     []cli.Flag{limitFlag(), stateFlag()},
			},
			{
				Name:      "entities",
				Usage:     "Search through the entity index",
				ArgsUsage: "QUERY",
				Action:    entitiesCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Entity type to search (repeatable, default all)",
					},
					limitFlag(),
				},
			},
			{
				Name:      "compare",
				Usage:     "Compare federal provisions with state implementations",
				ArgsUsage: "QUERY",
				Action:    compareCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "Comparison type: federal_vs_states or state_vs_state",
						Value: search.CompareFederalVsStates,
					},
					stateFlag(),
				},
			},
			{
				Name:   "status",
				Usage:  "Report index and vector service availability",
				Action: statusCommand,
			},
			{
				Name:   "benchmark",
				Usage:  "Time a fixed battery of state source queries",
				Action: benchmarkCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "iterations",
						Usage: "Number of passes over the query battery",
						Value: 3,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import state QAP chunks from a JSON or JSONL file",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks embedded per request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent import workers (0 uses the default)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each embedding request",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Maximum embedding requests per second (0 uses the config value)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed stored state chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each embedding request",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.StringSliceFlag{
						Name:    "state",
						Aliases: []string{"s"},
						Usage:   "Only reembed chunks from these state codes",
					},
				},
			},
		},
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of results (0 uses the index default)",
	}
}

func stateFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "state",
		Aliases: []string{"s"},
		Usage:   "Restrict state sources to these state codes",
	}
}

// loadConfig reads --config when given and applies the command line overrides.
func loadConfig(c *cli.Context) (*lihtcrag.Config, error) {
	cfg := lihtcrag.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = lihtcrag.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if dir := c.String("index-dir"); dir != "" {
		cfg.IndexDir = dir
	}
	if path := c.String("vector-db"); path != "" {
		cfg.Vector.Path = path
		cfg.Vector.InMemory = false
	}
	if c.Bool("no-vector") {
		cfg.Vector.Enabled = false
	}
	return cfg, nil
}

func openSystem(c *cli.Context, opts ...lihtcrag.SystemOption) (*lihtcrag.System, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts = append([]lihtcrag.SystemOption{lihtcrag.WithLogger(slog.Default())}, opts...)
	sys, err := lihtcrag.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open system: %w", err)
	}
	return sys, nil
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	return query, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func searchCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(c.String("format"))
	if format != search.FormatJSON && format != search.FormatMarkdown {
		return fmt.Errorf("invalid format %q: must be json or markdown", format)
	}

	var opts []lihtcrag.SystemOption
	if c.Bool("trace") {
		opts = append(opts, lihtcrag.WithSearchMonitor(search.NewTraceMonitor(c.App.ErrWriter)))
	}
	sys, err := openSystem(c, opts...)
	if err != nil {
		return err
	}
	defer sys.Close()

	records := sys.Searcher().SemanticSearchUnified(c.Context, search.Request{
		Query:     query,
		Namespace: core.Namespace(c.String("namespace")),
		Ranking:   core.RankingStrategy(c.String("ranking")),
		Limit:     c.Int("limit"),
		States:    c.StringSlice("state"),
	})
	_, err = fmt.Fprintln(c.App.Writer, search.ExportSearchResults(records, query, format))
	return err
}

func authorityCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	var levels []core.AuthorityLevel
	for _, l := range c.StringSlice("level") {
		level := core.AuthorityLevel(strings.ToLower(l))
		if !level.IsKnown() {
			return fmt.Errorf("unknown authority level %q", l)
		}
		levels = append(levels, level)
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	results := sys.Searcher().SearchByAuthorityLevel(c.Context, query, levels, c.Int("limit"))
	return writeJSON(c.App.Writer, search.ToRecords(results))
}

func datesCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	var start, end time.Time
	if t := c.Timestamp("from"); t != nil {
		start = *t
	}
	if t := c.Timestamp("to"); t != nil {
		end = *t
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("--to must not be before --from")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	results := sys.Searcher().SearchByEffectiveDate(c.Context, query, start, end, c.Int("limit"))
	return writeJSON(c.App.Writer, search.ToRecords(results))
}

func mappingsCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	mappings := sys.Searcher().SearchFederalStateMappings(c.Context, query, c.StringSlice("state"), c.Int("limit"))
	return writeJSON(c.App.Writer, mappings)
}

func conflictsCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	analysis := sys.Searcher().SearchWithConflictAnalysis(c.Context, query, c.StringSlice("state"), c.Int("limit"))
	return writeJSON(c.App.Writer, analysis)
}

func entitiesCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	results := sys.Searcher().AdvancedEntitySearch(c.Context, query, c.StringSlice("type"), c.Int("limit"))
	return writeJSON(c.App.Writer, search.ToRecords(results))
}

func compareCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	comparison := sys.Searcher().CrossJurisdictionalComparison(c.Context, query, c.String("type"), c.StringSlice("state"))
	return writeJSON(c.App.Writer, comparison)
}

func statusCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	return writeJSON(c.App.Writer, struct {
		Availability search.Availability `json:"availability"`
		Stats        search.StatsSnapshot `json:"stats"`
	}{
		Availability: sys.Searcher().Availability(),
		Stats:        sys.Searcher().Stats(),
	})
}

func benchmarkCommand(c *cli.Context) error {
	iterations := c.Int("iterations")
	if iterations <= 0 {
		return fmt.Errorf("iterations must be greater than 0")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	if !sys.StateSearcher().Available() {
		slog.Warn("vector service not configured; benchmark measures the empty path")
	}
	return writeJSON(c.App.Writer, sys.Benchmark(c.Context, iterations))
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("input file is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	chunks, err := ingestion.ReadStateChunks(f)
	if err != nil {
		return fmt.Errorf("failed to read chunks: %w", err)
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetryPolicy(ingestion.RetryPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			MaxDelay:    ingestion.DefaultRetryPolicy().MaxDelay,
		}),
		ingestion.WithProgress(c.App.ErrWriter),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	if perSecond := c.Float64("rate-limit"); perSecond > 0 {
		opts = append(opts, ingestion.WithRateLimit(perSecond))
	}
	importer, err := sys.NewImporter(opts...)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	defer importer.Release()

	fmt.Fprintf(c.App.ErrWriter, "Input: %s\n", path)
	fmt.Fprintf(c.App.ErrWriter, "Chunks: %d\n", len(chunks))
	fmt.Fprintln(c.App.ErrWriter)

	summary, err := importer.Import(c.Context, chunks)
	if werr := writeJSON(c.App.Writer, summary); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Retry: ingestion.RetryPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			MaxDelay:    ingestion.DefaultRetryPolicy().MaxDelay,
		},
		States: c.StringSlice("state"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	reembedder, err := sys.NewReembedder(config, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}
	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))
	if !c.IsSet("log-level") && c.String("config") != "" {
		if cfg, err := lihtcrag.LoadConfig(c.String("config")); err == nil && cfg.LogLevel != "" {
			levelStr = strings.ToLower(cfg.LogLevel)
		}
	}

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
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
