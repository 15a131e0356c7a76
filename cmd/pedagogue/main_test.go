package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// testApp returns the application with its output captured and the
// provider credentials of the surrounding environment cleared.
func testApp(t *testing.T, input string) (*cli.App, *bytes.Buffer) {
	t.Helper()
	for _, name := range []string{"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(name, "")
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(input)
	return app, &out
}

func globalArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"pedagogue",
		"--env-file", filepath.Join(dir, "missing.env"),
		"--db", filepath.Join(dir, "db"),
		"--log-level", "error",
	}
}

func writeCoursePDF(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Cell(0, 10, text)
	require.NoError(t, doc.OutputFileAndClose(path))
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, 0},
		{"invalid config", fmt.Errorf("loading: %w", config.ErrInvalidConfig), 1},
		{"no providers", fmt.Errorf("%w: set a key", ai.ErrNoProviders), 1},
		{"partial", fmt.Errorf("%w: 2 sections skipped", errPartial), 2},
		{"other", errors.New("disk full"), 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, exitCode(tc.err))
		})
	}
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"ingest", "evaluate", "report", "synthesize", "reset"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(app, name)
			require.NotNil(t, cmd)
			assert.NotNil(t, cmd.Action)
		})
	}

	t.Run("global flags", func(t *testing.T) {
		names := make(map[string]bool)
		for _, flag := range app.Flags {
			for _, n := range flag.Names() {
				names[n] = true
			}
		}
		for _, n := range []string{"config", "c", "env-file", "log-level", "l", "db", "d", "metrics-file"} {
			assert.True(t, names[n], "missing flag %s", n)
		}
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				assert.NoError(t, setupLogger(level))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := setupLogger("invalid")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag is validated before commands run", func(t *testing.T) {
		app, _ := testApp(t, "")
		args := append(globalArgs(t), "--log-level", "verbose", "reset", "--yes")
		err := app.Run(args)
		require.Error(t, err)
		assert.Equal(t, 1, exitCode(err))
	})
}

func TestConfirm(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%q", tc.input), func(t *testing.T) {
			var prompt bytes.Buffer
			assert.Equal(t, tc.expected, confirm(strings.NewReader(tc.input), &prompt, "Continue?"))
			assert.Equal(t, "Continue? [y/N] ", prompt.String())
		})
	}
}

func TestResetCommand(t *testing.T) {
	t.Run("declined confirmation leaves the store alone", func(t *testing.T) {
		app, out := testApp(t, "n\n")
		err := app.Run(append(globalArgs(t), "reset"))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Aborted.")
	})

	t.Run("confirmed reset clears the store", func(t *testing.T) {
		app, out := testApp(t, "y\n")
		err := app.Run(append(globalArgs(t), "reset"))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Store cleared.")
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		app, out := testApp(t, "")
		err := app.Run(append(globalArgs(t), "reset", "--yes"))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Store cleared.")
	})
}

func TestIngestAndReport(t *testing.T) {
	args := globalArgs(t)
	courses := filepath.Join(t.TempDir(), "courses")
	outputs := filepath.Join(t.TempDir(), "outputs")
	writeCoursePDF(t, filepath.Join(courses, "intro", "basics.pdf"), "Variables hold values.")
	writeCoursePDF(t, filepath.Join(courses, "intro", "loops.pdf"), "Loops repeat work.")

	app, out := testApp(t, "")
	err := app.Run(append(args, "ingest", "--courses-dir", courses, "--no-semantic"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Found 2 PDF files: 2 ingested, 0 already stored, 0 failed, 2 sections written")

	app, out = testApp(t, "")
	err = app.Run(append(args, "ingest", "--courses-dir", courses, "--no-semantic"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 already stored")

	app, out = testApp(t, "")
	err = app.Run(append(args, "report", "--outputs", outputs))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "aggregates.csv")
	assert.FileExists(t, filepath.Join(outputs, "aggregates.csv"))
	assert.FileExists(t, filepath.Join(outputs, "scorecard.pdf"))
}

func TestIngestFailureIsPartial(t *testing.T) {
	courses := filepath.Join(t.TempDir(), "courses")
	require.NoError(t, os.MkdirAll(courses, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(courses, "broken.pdf"), []byte("not a pdf"), 0o644))

	app, _ := testApp(t, "")
	err := app.Run(append(globalArgs(t), "ingest", "--courses-dir", courses, "--no-semantic"))
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestCommandsWithoutCredentials(t *testing.T) {
	for _, name := range []string{"evaluate", "synthesize"} {
		t.Run(name, func(t *testing.T) {
			app, _ := testApp(t, "")
			err := app.Run(append(globalArgs(t), name))
			require.Error(t, err)
			assert.ErrorIs(t, err, ai.ErrNoProviders)
			assert.Equal(t, 1, exitCode(err))
		})
	}

	t.Run("unknown model label", func(t *testing.T) {
		app, _ := testApp(t, "")
		err := app.Run(append(globalArgs(t), "evaluate", "--model", "llama"))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedagogue.prom")
	courses := filepath.Join(t.TempDir(), "courses")
	writeCoursePDF(t, filepath.Join(courses, "c", "one.pdf"), "One page.")

	app, _ := testApp(t, "")
	args := append(globalArgs(t), "--metrics-file", path, "ingest", "--courses-dir", courses, "--no-semantic")
	require.NoError(t, app.Run(args))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pedagogue_ingest_files_total{outcome="ingested"} 1`)
}
