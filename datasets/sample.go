package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/gotal/tal/features"
)

// FeatureSample is the unit handed to training or inference: one video's
// feature sequence plus its feature-grid-aligned segments and labels.
// Samples are built fresh on every retrieval and never mutated afterwards;
// the truncation augmenter returns a new, shorter sample instead of editing
// in place.
//
// Segments and Labels are nil together when the video has no annotated
// actions. FeatStride here is the effective stride (base stride times
// downsample rate), so downstream coordinate conversions need no knowledge
// of the downsampling applied during loading.
type FeatureSample struct {
	ID       string
	Feats    *features.Array
	Segments [][2]float64
	Labels   []int

	FPS        float64
	Duration   float64
	FeatStride int
	NumFrames  int
}

// Annotated reports whether the sample carries segments and labels.
func (s *FeatureSample) Annotated() bool { return s.Segments != nil }

// FeatsTensor converts the feature sequence to a [time, dim] gomlx tensor.
func (s *FeatureSample) FeatsTensor() *tensors.Tensor {
	rows := make([][]float32, s.Feats.Rows)
	for i := range rows {
		rows[i] = s.Feats.Row(i)
	}
	return tensors.FromAnyValue(rows)
}

// LabelTensors converts segments and labels to gomlx tensors of shapes
// [num_segments, 2] and [num_segments]. Both are nil for an unannotated
// sample.
func (s *FeatureSample) LabelTensors() (segs *tensors.Tensor, labels *tensors.Tensor) {
	if !s.Annotated() {
		return nil, nil
	}
	segRows := make([][]float32, len(s.Segments))
	for i, seg := range s.Segments {
		segRows[i] = []float32{float32(seg[0]), float32(seg[1])}
	}
	lab := make([]int32, len(s.Labels))
	for i, l := range s.Labels {
		lab[i] = int32(l)
	}
	return tensors.FromAnyValue(segRows), tensors.FromAnyValue(lab)
}

// BatchFlat stores a batch of equal-length feature sequences in a flat
// contiguous buffer, ready for tensor conversion.
type BatchFlat struct {
	Buf   []float32
	Batch int
	Time  int
	Dim   int
}

// MakeBatchFlat flattens samples into one contiguous buffer. Every sample
// must share the same sequence length and feature dimension, which the
// truncation augmenter guarantees for training batches.
func MakeBatchFlat(samples []*FeatureSample) (*BatchFlat, error) {
	if len(samples) == 0 {
		return &BatchFlat{}, nil
	}
	t := samples[0].Feats.Rows
	dim := samples[0].Feats.Cols
	for i, s := range samples {
		if s.Feats.Rows != t || s.Feats.Cols != dim {
			return nil, fmt.Errorf("inconsistent shapes: sample 0 is [%d, %d], sample %d is [%d, %d]",
				t, dim, i, s.Feats.Rows, s.Feats.Cols)
		}
	}
	flat := make([]float32, len(samples)*t*dim)
	for i, s := range samples {
		copy(flat[i*t*dim:], s.Feats.Data)
	}
	return &BatchFlat{Buf: flat, Batch: len(samples), Time: t, Dim: dim}, nil
}

// ToGomlxTensor converts the flat batch to a [batch, time, dim] tensor.
func (b *BatchFlat) ToGomlxTensor() (*tensors.Tensor, error) {
	if b.Batch == 0 || b.Time == 0 || b.Dim == 0 {
		empty := make([][][]float32, 0)
		return tensors.FromAnyValue(empty), nil
	}
	data := make([][][]float32, b.Batch)
	idx := 0
	for i := 0; i < b.Batch; i++ {
		data[i] = make([][]float32, b.Time)
		for j := 0; j < b.Time; j++ {
			data[i][j] = b.Buf[idx : idx+b.Dim]
			idx += b.Dim
		}
	}
	return tensors.FromAnyValue(data), nil
}
