package partition

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors describing why an interval token or document was rejected.
var (
	// ErrMissingSeparator indicates an interval without exactly one ':' between its endpoints.
	ErrMissingSeparator = errors.New("interval must contain exactly one ':' separator")
	// ErrUnbalancedBrackets indicates an interval not enclosed in a single '[' ']' pair.
	ErrUnbalancedBrackets = errors.New("interval must be enclosed in one pair of brackets")
	// ErrInvalidEndpoint indicates an endpoint that is not a base-10 64-bit integer.
	ErrInvalidEndpoint = errors.New("invalid interval endpoint")
	// ErrInvertedInterval indicates an interval whose start exceeds its end.
	ErrInvertedInterval = errors.New("interval start exceeds end")
	// ErrIntervalTooLarge indicates an interval covering more indices than an int64 can count.
	ErrIntervalTooLarge = errors.New("interval length overflows int64")
	// ErrCursorOutOfRange indicates a merge cursor pointing past its partition's intervals.
	ErrCursorOutOfRange = errors.New("partition cursor out of range")
	// ErrSchemaViolation indicates a JSON partition document that does not match the schema.
	ErrSchemaViolation = errors.New("partition document violates schema")
	// ErrUnknownStrategy indicates an unsupported merge strategy name.
	ErrUnknownStrategy = errors.New("unknown merge strategy")
	// ErrCoverage indicates intervals that do not tile the index range exactly once.
	ErrCoverage = errors.New("intervals do not tile the index range")
)

// MalformedIntervalError reports an interval that could not be used, together
// with the block (partition) it belongs to and the offending token.
type MalformedIntervalError struct {
	// Err is the underlying cause, one of the sentinel errors above.
	Err error
	// Token is the offending interval text as it appeared in the input.
	Token string
	// Block is the zero-based block index, which is also the partition ID.
	Block int
}

// Error implements the error interface.
func (e *MalformedIntervalError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("block %d: %v", e.Block, e.Err)
	}

	return fmt.Sprintf("block %d: malformed interval %q: %v", e.Block, e.Token, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedIntervalError) Unwrap() error {
	return e.Err
}

// CoverageError lists the gaps and overlaps found by [Validate].
type CoverageError struct {
	Issues []Issue
}

// maxIssuesInMessage bounds how many issues Error spells out.
const maxIssuesInMessage = 5

// Error implements the error interface.
func (e *CoverageError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%v: %d issue(s)", ErrCoverage, len(e.Issues))

	for i, issue := range e.Issues {
		if i == maxIssuesInMessage {
			fmt.Fprintf(&sb, "; and %d more", len(e.Issues)-maxIssuesInMessage)

			break
		}

		sb.WriteString("; ")
		sb.WriteString(issue.String())
	}

	return sb.String()
}

// Unwrap returns ErrCoverage so callers can match with errors.Is.
func (e *CoverageError) Unwrap() error {
	return ErrCoverage
}
