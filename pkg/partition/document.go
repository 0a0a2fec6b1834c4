package partition

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON schema of the JSON partition document.
//
//go:embed partition-schema.json
var documentSchema []byte

// Document is the JSON form of a partition map: partitions[k] holds the
// [start, end] pairs of partition k.
type Document struct {
	Partitions [][][2]int64 `json:"partitions"`
}

// ParseJSON validates data against the partition document schema and
// converts it to a Map. Intervals with start > end are rejected with a
// *MalformedIntervalError like in [Parse].
func ParseJSON(data []byte) (Map, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			violations = append(violations, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(violations, "; "))
	}

	var doc Document

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode partition document: %w", err)
	}

	return doc.Map()
}

// Map converts the document to a Map, checking orientation and length of
// every interval.
func (d Document) Map() (Map, error) {
	m := make(Map, 0, len(d.Partitions))

	for block, pairs := range d.Partitions {
		intervals := make([]Interval, 0, len(pairs))

		for _, pair := range pairs {
			iv := Interval{Start: pair[0], End: pair[1]}

			err := checkInterval(iv)
			if err != nil {
				return nil, &MalformedIntervalError{Block: block, Token: iv.String(), Err: err}
			}

			intervals = append(intervals, iv)
		}

		m = append(m, intervals)
	}

	return m, nil
}

// NewDocument converts m to its JSON document form.
func NewDocument(m Map) Document {
	doc := Document{Partitions: make([][][2]int64, 0, len(m))}

	for _, list := range m {
		pairs := make([][2]int64, 0, len(list))
		for _, iv := range list {
			pairs = append(pairs, [2]int64{iv.Start, iv.End})
		}

		doc.Partitions = append(doc.Partitions, pairs)
	}

	return doc
}
