package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/lihtcrag/index"
	"github.com/poiesic/lihtcrag/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func sampleIndexDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "indexes")
	require.NoError(t, index.WriteIndexFiles(dir, index.SampleFiles()))
	return dir
}

// run executes the app and returns what it wrote to its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"lihtcrag", "--log-level", "error"}, args...))
	return out.String(), err
}

func findCommand(t *testing.T, name string) *cli.Command {
	t.Helper()
	for _, cmd := range newApp().Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommandFlags(t *testing.T) {
	t.Run("search format defaults to json", func(t *testing.T) {
		cmd := findCommand(t, "search")
		var formatFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "format" {
				formatFlag = f
				break
			}
		}
		require.NotNil(t, formatFlag)
		assert.Equal(t, search.FormatJSON, formatFlag.Value)
	})

	t.Run("authority level is required", func(t *testing.T) {
		cmd := findCommand(t, "authority")
		var levelFlag *cli.StringSliceFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringSliceFlag); ok && f.Name == "level" {
				levelFlag = f
				break
			}
		}
		require.NotNil(t, levelFlag)
		assert.True(t, levelFlag.Required)
	})

	t.Run("compare type defaults to federal_vs_states", func(t *testing.T) {
		cmd := findCommand(t, "compare")
		var typeFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "type" {
				typeFlag = f
				break
			}
		}
		require.NotNil(t, typeFlag)
		assert.Equal(t, search.CompareFederalVsStates, typeFlag.Value)
	})
}

func TestSearchCommand(t *testing.T) {
	dir := sampleIndexDir(t)

	t.Run("json output", func(t *testing.T) {
		out, err := run(t, "--index-dir", dir, "--no-vector", "search", "--namespace", "federal", "minimum", "set-aside")
		require.NoError(t, err)

		var doc struct {
			Query        string          `json:"query"`
			TotalResults int             `json:"total_results"`
			Results      []search.Record `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "minimum set-aside", doc.Query)
		require.NotZero(t, doc.TotalResults)
		assert.Equal(t, "irc-42-g-1", doc.Results[0].ChunkID)
	})

	t.Run("markdown output", func(t *testing.T) {
		out, err := run(t, "--index-dir", dir, "--no-vector", "search", "-f", "markdown", "minimum set-aside")
		require.NoError(t, err)
		assert.Contains(t, out, "# Search Results for: minimum set-aside")
	})

	t.Run("trace", func(t *testing.T) {
		var out, trace bytes.Buffer
		app := newApp()
		app.Writer = &out
		app.ErrWriter = &trace
		err := app.Run([]string{"lihtcrag", "--log-level", "error", "--index-dir", dir, "--no-vector",
			"search", "--trace", "--namespace", "federal", "set-aside"})
		require.NoError(t, err)
		assert.Contains(t, trace.String(), `search "set-aside" namespace=federal`)
		assert.Contains(t, trace.String(), "done: ")
		assert.NotContains(t, out.String(), "done: ")
	})

	t.Run("query is required", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "--no-vector", "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "--no-vector", "search", "-f", "xml", "set-aside")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}

func TestAuthorityCommand(t *testing.T) {
	dir := sampleIndexDir(t)

	out, err := run(t, "--index-dir", dir, "--no-vector", "authority", "--level", "statutory", "minimum set-aside")
	require.NoError(t, err)
	var records []search.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "irc-42-g-1", records[0].ChunkID)

	_, err = run(t, "--index-dir", dir, "--no-vector", "authority", "--level", "folklore", "set-aside")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown authority level")
}

func TestDatesCommand(t *testing.T) {
	dir := sampleIndexDir(t)

	out, err := run(t, "--index-dir", dir, "--no-vector", "dates", "--from", "2010-01-01", "minimum set-aside")
	require.NoError(t, err)
	var records []search.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ChunkID)
	}
	assert.Contains(t, ids, "revproc-2014-49")
	assert.NotContains(t, ids, "irc-42-g-1")

	_, err = run(t, "--index-dir", dir, "--no-vector", "dates", "--from", "2020-01-01", "--to", "2010-01-01", "set-aside")
	require.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	out, err := run(t, "--index-dir", sampleIndexDir(t), "--no-vector", "status")
	require.NoError(t, err)

	var status struct {
		Availability search.Availability `json:"availability"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Availability.VectorService)
	assert.True(t, status.Availability.Degraded)
	assert.Contains(t, status.Availability.Indexes.Loaded, index.MasterChunkFile)
}

func TestCompareCommand(t *testing.T) {
	out, err := run(t, "--index-dir", sampleIndexDir(t), "--no-vector", "compare", "minimum set-aside")
	require.NoError(t, err)

	var comparison search.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &comparison))
	assert.Equal(t, search.StatusComplete, comparison.Status)
	assert.NotEmpty(t, comparison.StateMappings)
}

func TestImportCommand(t *testing.T) {
	input := filepath.Join(t.TempDir(), "chunks.jsonl")
	lines := `{"chunk_id":"ca-1","state_code":"CA","content":"California tie breaker","vector":[0.1,0.2,0.3]}
{"chunk_id":"bad","state_code":"California","content":"invalid state code","vector":[0.1]}
`
	require.NoError(t, os.WriteFile(input, []byte(lines), 0644))

	out, err := run(t,
		"--index-dir", sampleIndexDir(t),
		"--vector-db", filepath.Join(t.TempDir(), "qapdb"),
		"import", input)
	require.NoError(t, err)

	var summary struct {
		Total    int `json:"total"`
		Imported int `json:"imported"`
		Embedded int `json:"embedded"`
		Skipped  int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Embedded)
	assert.Equal(t, 1, summary.Skipped)

	t.Run("vector store disabled", func(t *testing.T) {
		_, err := run(t, "--index-dir", sampleIndexDir(t), "--no-vector", "import", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vector store disabled")
	})

	t.Run("input file is required", func(t *testing.T) {
		_, err := run(t, "--index-dir", sampleIndexDir(t), "--no-vector", "import")
		require.Error(t, err)
	})
}

func TestReembedCommandValidation(t *testing.T) {
	dir := sampleIndexDir(t)

	t.Run("batch-size must be positive", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "reembed", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("max-retries must be positive", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "reembed", "--max-retries", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})

	t.Run("vector store disabled", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "--no-vector", "reembed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vector store disabled")
	})

	t.Run("empty store succeeds", func(t *testing.T) {
		_, err := run(t, "--index-dir", dir, "--vector-db", filepath.Join(t.TempDir(), "qapdb"), "reembed")
		require.NoError(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
						&cli.StringFlag{Name: "config"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := run(t, "--log-level", "chatty", "status")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("config file supplies the level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lihtcrag.toml")
		config := "log_level = \"debug\"\n[vector]\nenabled = false\n"
		require.NoError(t, os.WriteFile(path, []byte(config), 0644))

		app := newApp()
		app.Writer = io.Discard
		err := app.Run([]string{"lihtcrag", "--config", path, "--index-dir", sampleIndexDir(t), "status"})
		require.NoError(t, err)
	})
}
