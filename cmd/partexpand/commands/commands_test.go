package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/fatih/color"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/partexpand/cmd/partexpand/commands"
	"github.com/Sumatoshi-tech/partexpand/pkg/config"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

const (
	testContiguous  = `{[1:3]}\n{[4:6]}`
	testInterleaved = `{[1:2],[5:6]}\n{[3:4]}`
	testMalformed   = `{[1:2],[abc:4]}`
	testOverlapping = `{[1:3]}\n{[3:4],[9:9]}`
	testWithEmpty   = `{[1:2]}\n{}\n{[3:3]}`
	testJSONMap     = `{"partitions":[[[1,2],[5,6]],[[3,4]]]}`

	wantContiguous  = "0\n0\n0\n1\n1\n1\n"
	wantInterleaved = "0\n0\n1\n1\n0\n0\n"
)

func TestMain(m *testing.M) {
	color.NoColor = true //nolint:reassign // deterministic output

	os.Exit(m.Run())
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command in-process against an empty config file.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	return runWithConfig(t, "", stdin, args...)
}

func runWithConfig(t *testing.T, configYAML, stdin string, args ...string) result {
	t.Helper()

	return runContext(context.Background(), t, configYAML, stdin, args...)
}

func runContext(ctx context.Context, t *testing.T, configYAML, stdin string, args ...string) result {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".partexpand.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestExpand_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"contiguous", testContiguous, wantContiguous},
		{"interleaved", testInterleaved, wantInterleaved},
		{"empty partition", testWithEmpty, "0\n0\n2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := run(t, "", "expand", tt.input)
			require.NoError(t, res.err)
			assert.Equal(t, tt.want, res.stdout)
		})
	}
}

func TestExpand_MalformedInput(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", testMalformed)
	require.Error(t, res.err)
	assert.Empty(t, res.stdout)

	var malformed *partition.MalformedIntervalError

	require.ErrorAs(t, res.err, &malformed)
	assert.Equal(t, 0, malformed.Block)
	assert.Equal(t, "[abc:4]", malformed.Token)
	assert.Contains(t, res.err.Error(), `block 0: malformed interval "[abc:4]"`)
	assert.Equal(t, 1, commands.ExitCode(res.err))
}

func TestExpand_IntervalTooLarge(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", `{[1:2]}\n{[-9223372036854775808:0]}`)
	require.ErrorIs(t, res.err, partition.ErrIntervalTooLarge)
	assert.Empty(t, res.stdout)
	assert.Equal(t, 1, commands.ExitCode(res.err))
}

func TestExpand_WarnsAboutEmptyPartitions(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", testWithEmpty)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "partitions without intervals emit no records")
	assert.Contains(t, res.stderr, "expanded partition map")
}

func TestExpand_QuietSuppressesInfoLogs(t *testing.T) {
	t.Parallel()

	res := run(t, "", "--quiet", "expand", testContiguous)
	require.NoError(t, res.err)
	assert.Equal(t, wantContiguous, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestExpand_Stdin(t *testing.T) {
	t.Parallel()

	res := run(t, testInterleaved, "expand", "-")
	require.NoError(t, res.err)
	assert.Equal(t, wantInterleaved, res.stdout)
}

func TestExpand_InputFileAndOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "map.txt")
	out := filepath.Join(dir, "owners.txt")

	require.NoError(t, os.WriteFile(in, []byte(testInterleaved+"\n"), 0o600))

	res := run(t, "", "expand", "--input-file", in, "-o", out)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, wantInterleaved, string(data))
}

func TestExpand_InputSelectionErrors(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand")
	require.ErrorIs(t, res.err, commands.ErrNoInput)

	res = run(t, "", "expand", "--input-file", "map.txt", testContiguous)
	require.ErrorIs(t, res.err, commands.ErrInputConflict)

	res = run(t, "", "expand", "--input-format", "csv", testContiguous)
	require.ErrorIs(t, res.err, commands.ErrUnknownInputFormat)
}

func TestExpand_JSONInputAndOutput(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", "--input-format", "json", "--format", "json", testJSONMap)
	require.NoError(t, res.err)

	var ids []int

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &ids))
	assert.Equal(t, []int{0, 0, 1, 1, 0, 0}, ids)
}

func TestExpand_HeapStrategyMatchesScan(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", "--strategy", "heap", testInterleaved)
	require.NoError(t, res.err)
	assert.Equal(t, wantInterleaved, res.stdout)

	res = run(t, "", "expand", "--strategy", "quick", testInterleaved)
	require.ErrorIs(t, res.err, partition.ErrUnknownStrategy)
}

func TestExpand_ConfigFileAndFlagOverride(t *testing.T) {
	t.Parallel()

	const cfg = "output:\n  format: json\nexpand:\n  strategy: heap\n"

	res := runWithConfig(t, cfg, "", "expand", testContiguous)
	require.NoError(t, res.err)
	assert.Equal(t, "[0,0,0,1,1,1]\n", res.stdout)

	res = runWithConfig(t, cfg, "", "expand", "--format", "lines", testContiguous)
	require.NoError(t, res.err)
	assert.Equal(t, wantContiguous, res.stdout)
}

func TestExpand_LZ4Compression(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", "--compression", "lz4", testContiguous)
	require.NoError(t, res.err)

	plain, err := io.ReadAll(lz4.NewReader(strings.NewReader(res.stdout)))
	require.NoError(t, err)
	assert.Equal(t, wantContiguous, string(plain))
}

func TestExpand_ReaderGoneEndsQuietly(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, r.Close())

	t.Cleanup(func() { _ = w.Close() })

	cfgPath := filepath.Join(t.TempDir(), ".partexpand.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o600))

	var stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetArgs([]string{"--config", cfgPath, "expand", testContiguous})
	cmd.SetOut(w)
	cmd.SetErr(&stderr)

	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

// Changes process-wide signal disposition, so not parallel.
func TestIgnoreBrokenPipeSignal(t *testing.T) {
	commands.IgnoreBrokenPipeSignal()

	assert.True(t, signal.Ignored(syscall.SIGPIPE))
}

func TestExpand_ValidateRejectsOverlap(t *testing.T) {
	t.Parallel()

	res := run(t, "", "expand", "--validate", testOverlapping)
	require.ErrorIs(t, res.err, partition.ErrCoverage)
	assert.Empty(t, res.stdout)
	assert.Equal(t, 2, commands.ExitCode(res.err))

	res = run(t, "", "expand", testOverlapping)
	require.NoError(t, res.err)
}

func TestExpand_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := runContext(ctx, t, "", "", "expand", testContiguous)
	require.ErrorIs(t, res.err, context.Canceled)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	res := run(t, "", "validate", testInterleaved)
	require.NoError(t, res.err)
	assert.Equal(t, "argument: 3 intervals tile [1:6] exactly once\n", res.stdout)

	res = run(t, "", "validate", "--origin", "0", testOverlapping)
	require.ErrorIs(t, res.err, partition.ErrCoverage)
	assert.Contains(t, res.stdout, "3 coverage issue(s)")
	assert.Contains(t, res.stdout, "gap [0:0]")
	assert.Contains(t, res.stdout, "overlap [3:3]")
	assert.Contains(t, res.stdout, "gap [5:8]")
}

func TestValidate_CoverBeforeOrigin(t *testing.T) {
	t.Parallel()

	res := run(t, "", "validate", "--origin", "2", testContiguous)
	require.ErrorIs(t, res.err, partition.ErrCoverage)
	assert.Contains(t, res.stdout, "1 coverage issue(s)")
	assert.Contains(t, res.stdout, "before_origin [1:1]")
	assert.Equal(t, 2, commands.ExitCode(res.err))
}

func TestValidate_JSON(t *testing.T) {
	t.Parallel()

	res := run(t, "", "validate", "--format", "json", testOverlapping)
	require.ErrorIs(t, res.err, partition.ErrCoverage)

	var cov partition.CoverageReport

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cov))
	assert.Equal(t, 3, cov.Intervals)
	require.Len(t, cov.Issues, 2)
	assert.Equal(t, partition.IssueOverlap, cov.Issues[0].Kind)
	assert.Equal(t, partition.IssueGap, cov.Issues[1].Kind)
}

func TestStats(t *testing.T) {
	t.Parallel()

	res := run(t, "", "stats", testInterleaved)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "PARTITION")
	assert.Contains(t, res.stdout, "66.67%")

	res = run(t, "", "stats", "--format", "json", testInterleaved)
	require.NoError(t, res.err)

	var summary partition.Summary

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &summary))
	assert.Equal(t, int64(6), summary.Indices)
	assert.Equal(t, int64(2), summary.MinSize)
	assert.Equal(t, int64(4), summary.MaxSize)
}

func TestStats_Chart(t *testing.T) {
	t.Parallel()

	chart := filepath.Join(t.TempDir(), "sizes.html")

	res := run(t, "", "stats", "--format", "yaml", "--chart", chart, testContiguous)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "max_imbalance: 0")

	info, err := os.Stat(chart)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestLookup(t *testing.T) {
	t.Parallel()

	res := run(t, "", "lookup", testInterleaved, "-i", "3", "--index", "6", "-i", "42")
	require.NoError(t, res.err)
	assert.Equal(t, "3 1 [3:4]\n6 0 [5:6]\n42 - -\n", res.stdout)

	res = run(t, "", "lookup", testInterleaved)
	require.ErrorIs(t, res.err, commands.ErrNoIndices)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "partexpand "))
}

func TestInvalidConfigFails(t *testing.T) {
	t.Parallel()

	res := runWithConfig(t, "output:\n  compression: zstd\n", "", "expand", testContiguous)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "validate config")
}

func TestExpand_FlagOverridesInvalidConfigValue(t *testing.T) {
	t.Parallel()

	const cfg = "output:\n  format: csv\n"

	res := runWithConfig(t, cfg, "", "expand", "--format", "lines", testContiguous)
	require.NoError(t, res.err)
	assert.Equal(t, wantContiguous, res.stdout)

	res = runWithConfig(t, cfg, "", "expand", testContiguous)
	require.ErrorIs(t, res.err, config.ErrInvalidFormat)
	assert.Contains(t, res.err.Error(), "validate config")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, commands.ExitCode(errors.New("boom")))
	assert.Equal(t, 2, commands.ExitCode(&partition.CoverageError{}))
}

func TestMCPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd, _, err := commands.NewRootCommand().Find([]string{"mcp"})
	require.NoError(t, err)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
}
