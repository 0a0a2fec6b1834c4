package partition

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockSeparator separates partition blocks in the compact form. It is the
// two-character escape sequence backslash + 'n', not a newline character.
const BlockSeparator = `\n`

const (
	tokenSeparator    = ","
	endpointSeparator = ":"
	openBracket       = "["
	closeBracket      = "]"
)

// braceStripper removes the block delimiters before tokenizing.
var braceStripper = strings.NewReplacer("{", "", "}", "")

// Parse reads the compact form `{[s:e],[s:e]}\n{[s:e]}` into a Map. Block k
// becomes partition k, and intervals keep their order of appearance.
//
// An empty block yields a partition with no intervals. A token that does not
// match "[start:end]" with integer endpoints, start <= end and a length that fits in an
// int64 fails the whole
// parse with a *MalformedIntervalError.
func Parse(input string) (Map, error) {
	blocks := strings.Split(input, BlockSeparator)
	m := make(Map, 0, len(blocks))

	for i, block := range blocks {
		intervals, err := parseBlock(i, block)
		if err != nil {
			return nil, err
		}

		m = append(m, intervals)
	}

	return m, nil
}

func parseBlock(index int, block string) ([]Interval, error) {
	body := braceStripper.Replace(strings.TrimSpace(block))
	intervals := []Interval{}

	for token := range strings.SplitSeq(body, tokenSeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		iv, err := parseToken(token)
		if err != nil {
			return nil, &MalformedIntervalError{Block: index, Token: token, Err: err}
		}

		intervals = append(intervals, iv)
	}

	return intervals, nil
}

func parseToken(token string) (Interval, error) {
	if !strings.HasPrefix(token, openBracket) || !strings.HasSuffix(token, closeBracket) {
		return Interval{}, ErrUnbalancedBrackets
	}

	inner := token[len(openBracket) : len(token)-len(closeBracket)]
	if strings.ContainsAny(inner, openBracket+closeBracket) {
		return Interval{}, ErrUnbalancedBrackets
	}

	lo, hi, found := strings.Cut(inner, endpointSeparator)
	if !found || strings.Contains(hi, endpointSeparator) {
		return Interval{}, ErrMissingSeparator
	}

	start, err := parseEndpoint(lo)
	if err != nil {
		return Interval{}, err
	}

	end, err := parseEndpoint(hi)
	if err != nil {
		return Interval{}, err
	}

	iv := Interval{Start: start, End: end}

	err = checkInterval(iv)
	if err != nil {
		return Interval{}, err
	}

	return iv, nil
}

// checkInterval rejects inverted intervals and intervals whose length does
// not fit in an int64.
func checkInterval(iv Interval) error {
	if iv.Start > iv.End {
		return fmt.Errorf("%w: %d > %d", ErrInvertedInterval, iv.Start, iv.End)
	}

	if iv.Len() <= 0 {
		return fmt.Errorf("%w: %s", ErrIntervalTooLarge, iv)
	}

	return nil
}

func parseEndpoint(raw string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidEndpoint, raw)
	}

	return value, nil
}

// Format writes m back in the compact form accepted by [Parse]. Empty
// partitions are written as "{}".
func Format(m Map) string {
	var sb strings.Builder

	buf := make([]byte, 0, intervalTokenCap)

	for id, list := range m {
		if id > 0 {
			sb.WriteString(BlockSeparator)
		}

		sb.WriteByte('{')

		for i, iv := range list {
			if i > 0 {
				sb.WriteString(tokenSeparator)
			}

			buf = iv.appendToken(buf[:0])
			sb.Write(buf)
		}

		sb.WriteByte('}')
	}

	return sb.String()
}
