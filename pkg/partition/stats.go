package partition

import "math"

// PartitionSummary describes the size of one partition.
type PartitionSummary struct {
	ID        ID      `json:"id"        yaml:"id"`
	Intervals int     `json:"intervals" yaml:"intervals"`
	Indices   int64   `json:"indices"   yaml:"indices"`
	Share     float64 `json:"share"     yaml:"share"`
}

// Summary describes the balance of a whole partition map.
type Summary struct {
	Partitions []PartitionSummary `json:"partitions"    yaml:"partitions"`
	Intervals  int                `json:"intervals"     yaml:"intervals"`
	Indices    int64              `json:"indices"       yaml:"indices"`
	MinSize    int64              `json:"min_size"      yaml:"min_size"`
	MaxSize    int64              `json:"max_size"      yaml:"max_size"`
	// MaxImbalance is max over partitions of |N/P - size| / (N/P), where N is
	// the total number of indices and P the number of partitions.
	MaxImbalance float64 `json:"max_imbalance" yaml:"max_imbalance"`
}

// Summarize computes per-partition sizes and the maximum imbalance of m.
func Summarize(m Map) Summary {
	summary := Summary{
		Partitions: make([]PartitionSummary, 0, len(m)),
	}

	for id, list := range m {
		ps := PartitionSummary{ID: ID(id), Intervals: len(list)}

		for _, iv := range list {
			ps.Indices += iv.Len()
		}

		summary.Partitions = append(summary.Partitions, ps)
		summary.Intervals += ps.Intervals
		summary.Indices += ps.Indices

		if id == 0 || ps.Indices < summary.MinSize {
			summary.MinSize = ps.Indices
		}

		if ps.Indices > summary.MaxSize {
			summary.MaxSize = ps.Indices
		}
	}

	if len(m) == 0 || summary.Indices == 0 {
		return summary
	}

	expected := float64(summary.Indices) / float64(len(m))

	for i := range summary.Partitions {
		ps := &summary.Partitions[i]
		ps.Share = float64(ps.Indices) / float64(summary.Indices)

		imbalance := math.Abs(expected-float64(ps.Indices)) / expected
		summary.MaxImbalance = max(summary.MaxImbalance, imbalance)
	}

	return summary
}
