package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/report"
)

const (
	testBalanced   = `{[1:1000],[3001:4000]}\n{[1001:3000]}`
	testUnbalanced = `{[1:10]}\n{[11:12]}`
	testBroken     = `{[1:5]}\n{[4:8],[12:20]}`
)

func TestMain(m *testing.M) {
	color.NoColor = true //nolint:reassign // deterministic output

	os.Exit(m.Run())
}

func summaryOf(t *testing.T, input string) partition.Summary {
	t.Helper()

	m, err := partition.Parse(input)
	require.NoError(t, err)

	return partition.Summarize(m)
}

func TestSummaryTable(t *testing.T) {
	t.Parallel()

	out := report.SummaryTable(summaryOf(t, testBalanced))

	assert.Contains(t, out, "PARTITION")
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "4,000")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, strings.ToLower(out), "imbalance 0.00%")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWriteSummary_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteSummary(&buf, summaryOf(t, testUnbalanced), report.FormatJSON))

	var decoded partition.Summary

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, int64(12), decoded.Indices)
	assert.Equal(t, int64(2), decoded.MinSize)
	assert.InDelta(t, 2.0/3.0, decoded.MaxImbalance, 1e-9)
	require.Len(t, decoded.Partitions, 2)
}

func TestWriteSummary_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteSummary(&buf, summaryOf(t, testUnbalanced), report.FormatYAML))

	var decoded partition.Summary

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, int64(10), decoded.MaxSize)
	assert.Contains(t, buf.String(), "max_imbalance:")
}

func TestWriteSummary_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.WriteSummary(&bytes.Buffer{}, partition.Summary{}, "xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestWriteChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteChart(&buf, summaryOf(t, testBalanced)))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Indices per partition")
}

func TestWriteCoverage_OK(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(testBalanced)
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, report.WriteCoverage(&buf, "map.txt", partition.CheckCoverage(m, partition.ValidateOptions{})))
	assert.Equal(t, "map.txt: 3 intervals tile [1:4000] exactly once\n", buf.String())
}

func TestWriteCoverage_Issues(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(testBroken)
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, report.WriteCoverage(&buf, "map.txt", partition.CheckCoverage(m, partition.ValidateOptions{})))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "map.txt: 2 coverage issue(s) across 3 intervals", lines[0])
	assert.Contains(t, lines[1], "overlap [4:5]")
	assert.Contains(t, lines[2], "gap [9:11]")
}
