package datasets

import (
	"math"
	"math/rand"
)

// TruncateOptions configures the training-time truncation/cropping
// augmenter.
type TruncateOptions struct {
	// MaxSeqLen bounds the output sequence length. Zero disables truncation
	// entirely.
	MaxSeqLen int

	// TruncThresh is the minimum fraction of a segment's original length
	// that must survive inside the window for the segment to be retained.
	// The comparison is boundary-inclusive.
	TruncThresh float64

	// CropRatio, when non-nil, enables crop augmentation for sequences
	// already within the length bound: the window length is drawn uniformly
	// from [round(lo*len), round(hi*len)], both clamped to [1, len].
	CropRatio *[2]float64

	// MaxTrials bounds how many windows are drawn while looking for one
	// that retains at least one segment. Defaults to 200.
	MaxTrials int
}

// Truncate produces a new sample whose feature sequence fits the length
// bound, selecting a contiguous window at a random offset. Segments keep
// their labels only when their overlap fraction with the window reaches
// TruncThresh; survivors are clipped to the window and re-based to its
// start. The input sample is never modified.
//
// A sample already within the bound is returned unchanged unless crop
// augmentation is enabled. Inference-mode callers simply don't call this.
func Truncate(s *FeatureSample, opts TruncateOptions, rng *rand.Rand) *FeatureSample {
	n := s.Feats.Rows
	winLen := opts.MaxSeqLen
	if winLen <= 0 {
		return s
	}

	if n <= winLen {
		if opts.CropRatio == nil {
			return s
		}
		lo := int(math.Round(opts.CropRatio[0] * float64(n)))
		hi := int(math.Round(opts.CropRatio[1] * float64(n)))
		if lo < 1 {
			lo = 1
		}
		if hi > n {
			hi = n
		}
		if hi < lo {
			hi = lo
		}
		winLen = lo + rng.Intn(hi-lo+1)
		if winLen >= n {
			return s
		}
	}

	trials := opts.MaxTrials
	if trials <= 0 {
		trials = 200
	}

	// Draw windows until at least one segment survives the overlap rule.
	// Unannotated samples accept the first window.
	var st, ed int
	var keep []int
	for t := 0; t < trials; t++ {
		st = rng.Intn(n - winLen + 1)
		ed = st + winLen
		if !s.Annotated() {
			break
		}
		keep = keep[:0]
		for i, seg := range s.Segments {
			if overlapFraction(seg, float64(st), float64(ed)) >= opts.TruncThresh {
				keep = append(keep, i)
			}
		}
		if len(keep) > 0 {
			break
		}
	}

	out := &FeatureSample{
		ID:         s.ID,
		Feats:      s.Feats.Slice(st, ed),
		FPS:        s.FPS,
		Duration:   s.Duration,
		FeatStride: s.FeatStride,
		NumFrames:  s.NumFrames,
	}
	if s.Annotated() && len(keep) > 0 {
		out.Segments = make([][2]float64, 0, len(keep))
		out.Labels = make([]int, 0, len(keep))
		for _, i := range keep {
			seg := s.Segments[i]
			out.Segments = append(out.Segments, [2]float64{
				clamp(seg[0], float64(st), float64(ed)) - float64(st),
				clamp(seg[1], float64(st), float64(ed)) - float64(st),
			})
			out.Labels = append(out.Labels, s.Labels[i])
		}
	}
	return out
}

// overlapFraction is intersection length over original segment length. A
// segment fully outside [st, ed) scores zero. Zero-length segments are
// rejected at database load, so the division is safe here.
func overlapFraction(seg [2]float64, st, ed float64) float64 {
	inter := math.Min(seg[1], ed) - math.Max(seg[0], st)
	if inter <= 0 {
		return 0
	}
	return inter / (seg[1] - seg[0])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
