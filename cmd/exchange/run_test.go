package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efreitasn/exchange/internal/config"
	"github.com/efreitasn/exchange/internal/ingest"
)

func writeInputs(t *testing.T, clients, orders string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		LogLevel:    "info",
		ClientsFile: filepath.Join(dir, "Clients.txt"),
		OrdersFile:  filepath.Join(dir, "Orders.txt"),
		ResultFile:  filepath.Join(dir, "result.txt"),
		TradesFile:  filepath.Join(dir, "trades.txt"),
		BookDepth:   5,
	}
	require.NoError(t, os.WriteFile(cfg.ClientsFile, []byte(clients), 0o644))
	require.NoError(t, os.WriteFile(cfg.OrdersFile, []byte(orders), 0o644))
	return cfg
}

func TestRun_WritesReportAndTrades(t *testing.T) {
	cfg := writeInputs(t,
		"A 1000 0 0 10\nB 1000 0 0 10\n",
		"B b C 10 10\nA s C 10 10\n",
	)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	require.NoError(t, run(context.Background(), cfg, logger))

	result, err := os.ReadFile(cfg.ResultFile)
	require.NoError(t, err)
	assert.Equal(t, "A\t1100\t0\t0\t0\nB\t900\t0\t0\t20\n", string(result))

	trades, err := os.ReadFile(cfg.TradesFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(trades)), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "\tC\tB\tA\t10\t10"), lines[0])

	assert.Contains(t, logs.String(), `"msg":"orders replayed"`)
	assert.Contains(t, logs.String(), `"msg":"book depth"`)
}

func TestRun_DebugLogsExecutionsAndOpenOrders(t *testing.T) {
	cfg := writeInputs(t,
		"A 1000 0 0 10\nB 1000 0 0 10\n",
		"B b C 10 4\nA s C 10 10\n",
	)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, run(context.Background(), cfg, logger))

	out := logs.String()
	assert.Contains(t, out, `"msg":"order executed"`)
	assert.Contains(t, out, `"average_price":10`)
	assert.Contains(t, out, `"msg":"open order"`)
	assert.Contains(t, out, `"remaining":6`)
	assert.Contains(t, out, `"statuses":{`)
	assert.Contains(t, out, `"last_price":10`)
}

func TestRun_ParseErrorAborts(t *testing.T) {
	cfg := writeInputs(t, "A 1000\n", "A x C 1 1\n")

	err := run(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)

	var perr *ingest.ParseError
	assert.ErrorAs(t, err, &perr)
	_, statErr := os.Stat(cfg.ResultFile)
	assert.True(t, os.IsNotExist(statErr), "no report should be written")
}

func TestRun_MissingInput(t *testing.T) {
	cfg := writeInputs(t, "", "")
	cfg.OrdersFile = filepath.Join(t.TempDir(), "missing.txt")

	err := run(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootCmd_FlagsOverrideConfig(t *testing.T) {
	cfg := writeInputs(t, "A 5\n", "")
	result := filepath.Join(t.TempDir(), "out.txt")

	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--result", result, "--trades", "", "--book-depth", "0", "--log-level", "warn"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, result, cfg.ResultFile)
	assert.Equal(t, 0, cfg.BookDepth)
	got, err := os.ReadFile(result)
	require.NoError(t, err)
	assert.Equal(t, "A\t5\n", string(got))
	assert.Empty(t, out.String(), "info logs are filtered at warn level")
}

func TestRootCmd_InvalidFlagValue(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown log level", []string{"--log-level", "loud"}, `invalid log level: \"loud\"`},
		{"unparsable depth", []string{"--book-depth", "deep"}, `invalid argument \"deep\"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeInputs(t, "", "")
			cmd := newRootCmd(cfg)
			var stderr bytes.Buffer
			cmd.SetOut(io.Discard)
			cmd.SetErr(&stderr)
			cmd.SetArgs(tt.args)

			require.Error(t, cmd.ExecuteContext(context.Background()))
			assert.Contains(t, stderr.String(), `"msg":"invalid configuration"`)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}
