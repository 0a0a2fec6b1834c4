package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// Tool name constants.
const (
	ToolNameExpand   = "partition_expand"
	ToolNameStats    = "partition_stats"
	ToolNameValidate = "partition_validate"
	ToolNameLookup   = "partition_lookup"
)

// Input limits.
const (
	// MaxMapInputBytes is the maximum size of an inline partition map (1 MB).
	MaxMapInputBytes = 1 << 20
	// DefaultExpandLimit is the record limit when partition_expand is called without one.
	DefaultExpandLimit = 10_000
	// MaxExpandLimit caps the records partition_expand returns in one response.
	MaxExpandLimit = 1_000_000
	// MaxLookupIndices caps the indices one partition_lookup call may query.
	MaxLookupIndices = 10_000
)

// Input format values.
const (
	inputFormatText = "text"
	inputFormatJSON = "json"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyMap indicates the map parameter is empty.
	ErrEmptyMap = errors.New("map parameter is required and must not be empty")
	// ErrMapTooLarge indicates the map input exceeds MaxMapInputBytes.
	ErrMapTooLarge = errors.New("map input exceeds maximum size")
	// ErrUnknownInputFormat indicates an input_format other than text or json.
	ErrUnknownInputFormat = errors.New("input_format must be text or json")
	// ErrInvalidLimit indicates a negative or oversized limit.
	ErrInvalidLimit = errors.New("limit out of range")
	// ErrNoIndices indicates partition_lookup was called without indices.
	ErrNoIndices = errors.New("indices parameter is required and must not be empty")
	// ErrTooManyIndices indicates partition_lookup was called with too many indices.
	ErrTooManyIndices = errors.New("too many indices")
)

// errLimitReached stops the merge once the record limit is filled.
var errLimitReached = errors.New("record limit reached")

// ExpandInput is the input schema for the partition_expand tool.
type ExpandInput struct {
	Map         string `json:"map"                    jsonschema:"partition map text or JSON document"`
	InputFormat string `json:"input_format,omitempty" jsonschema:"text (default) or json"`
	Strategy    string `json:"strategy,omitempty"     jsonschema:"merge strategy: scan (default) or heap"`
	Limit       int    `json:"limit,omitempty"        jsonschema:"maximum number of records to return (default 10000)"`
	Validate    bool   `json:"validate,omitempty"     jsonschema:"reject maps whose intervals overlap or leave gaps"`
}

// StatsInput is the input schema for the partition_stats tool.
type StatsInput struct {
	Map         string `json:"map"                    jsonschema:"partition map text or JSON document"`
	InputFormat string `json:"input_format,omitempty" jsonschema:"text (default) or json"`
}

// ValidateInput is the input schema for the partition_validate tool.
type ValidateInput struct {
	Origin      *int64 `json:"origin,omitempty"       jsonschema:"first index the cover must start at"`
	Map         string `json:"map"                    jsonschema:"partition map text or JSON document"`
	InputFormat string `json:"input_format,omitempty" jsonschema:"text (default) or json"`
}

// LookupInput is the input schema for the partition_lookup tool.
type LookupInput struct {
	Map         string  `json:"map"                    jsonschema:"partition map text or JSON document"`
	InputFormat string  `json:"input_format,omitempty" jsonschema:"text (default) or json"`
	Indices     []int64 `json:"indices"                jsonschema:"global indices to resolve to their owning partition"`
}

// ExpandResult is the partition_expand payload.
type ExpandResult struct {
	IDs       []partition.ID `json:"ids"`
	Records   int64          `json:"records"`
	Total     int64          `json:"total"`
	Truncated bool           `json:"truncated"`
}

// Ownership is one partition_lookup answer.
type Ownership struct {
	Partition *partition.ID       `json:"partition"`
	Interval  *partition.Interval `json:"interval,omitempty"`
	Index     int64               `json:"index"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func handleExpand(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ExpandInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	m, err := parseMap(input.Map, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultExpandLimit
	}

	if limit < 0 || limit > MaxExpandLimit {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrInvalidLimit, input.Limit, MaxExpandLimit))
	}

	strategy, err := partition.ParseStrategy(input.Strategy)
	if err != nil {
		return errorResult(err)
	}

	total := m.TotalRecords()
	res := ExpandResult{IDs: make([]partition.ID, 0, max(0, min(int64(limit), total))), Total: total}

	_, err = partition.Merge(ctx, m, partition.Options{Strategy: strategy, Validate: input.Validate},
		func(run partition.Run) error {
			for range run.Interval.Len() {
				if len(res.IDs) == limit {
					res.Truncated = true

					return errLimitReached
				}

				res.IDs = append(res.IDs, run.Partition)
			}

			return nil
		})
	if err != nil && !errors.Is(err, errLimitReached) {
		return errorResult(err)
	}

	res.Records = int64(len(res.IDs))

	return jsonResult(res)
}

func handleStats(
	_ context.Context, _ *mcpsdk.CallToolRequest, input StatsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	m, err := parseMap(input.Map, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(partition.Summarize(m))
}

func handleValidate(
	_ context.Context, _ *mcpsdk.CallToolRequest, input ValidateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	m, err := parseMap(input.Map, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	opts := partition.ValidateOptions{}
	if input.Origin != nil {
		opts.Origin = *input.Origin
		opts.CheckOrigin = true
	}

	return jsonResult(partition.CheckCoverage(m, opts))
}

func handleLookup(
	_ context.Context, _ *mcpsdk.CallToolRequest, input LookupInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Indices) == 0 {
		return errorResult(ErrNoIndices)
	}

	if len(input.Indices) > MaxLookupIndices {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrTooManyIndices, len(input.Indices), MaxLookupIndices))
	}

	m, err := parseMap(input.Map, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	idx := partition.NewIndex(m)
	answers := make([]Ownership, 0, len(input.Indices))

	for _, i := range input.Indices {
		answer := Ownership{Index: i}

		if run, ok := idx.Find(i); ok {
			answer.Partition = &run.Partition
			answer.Interval = &run.Interval
		}

		answers = append(answers, answer)
	}

	return jsonResult(answers)
}

// parseMap decodes an inline map in the text or JSON form.
func parseMap(text, format string) (partition.Map, error) {
	if text == "" {
		return nil, ErrEmptyMap
	}

	if len(text) > MaxMapInputBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMapTooLarge, len(text), MaxMapInputBytes)
	}

	switch format {
	case "", inputFormatText:
		return partition.Parse(text)
	case inputFormatJSON:
		return partition.ParseJSON([]byte(text))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInputFormat, format)
	}
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

// Tool description constants.
const (
	expandToolDescription = "Expand a compact partition map into one partition id per global index, " +
		"in ascending index order. Returns at most limit ids and reports whether the output was truncated."

	statsToolDescription = "Summarize a partition map: intervals and indices per partition, " +
		"share of the total and the maximum load imbalance."

	validateToolDescription = "Check that the intervals of a partition map tile a contiguous range " +
		"exactly once. Reports every gap and overlap."

	lookupToolDescription = "Resolve global indices to the partition and interval that own them."
)
