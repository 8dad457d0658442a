package datasets

// Temporal alignment between raw video time and the feature grid. Feature
// vectors are extracted from fixed-size sliding windows over frames, so
// expressing a timestamp in window-index units must compensate for window
// centering; skipping the offset drifts every boundary by half a window.

// EffectiveStride is the frame distance between consecutive feature vectors
// after downsampling.
func EffectiveStride(featStride, downsample int) int {
	if downsample <= 1 {
		return featStride
	}
	return featStride * downsample
}

// GridOffset centers each feature vector on its contributing frame window:
// 0.5 * numFrames / effectiveStride.
func GridOffset(numFrames, effectiveStride int) float64 {
	return 0.5 * float64(numFrames) / float64(effectiveStride)
}

// FramesToGrid converts a boundary in native frame coordinates to a
// feature-grid coordinate.
func FramesToGrid(frames float64, numFrames, effectiveStride int) float64 {
	return frames/float64(effectiveStride) - GridOffset(numFrames, effectiveStride)
}

// SecondsToGrid converts a boundary in seconds to a feature-grid coordinate:
// sec * fps / effectiveStride - offset.
func SecondsToGrid(sec, fps float64, numFrames, effectiveStride int) float64 {
	return FramesToGrid(sec*fps, numFrames, effectiveStride)
}

// GridToSeconds is the inverse of SecondsToGrid, used by downstream decoding
// and by round-trip checks.
func GridToSeconds(grid, fps float64, numFrames, effectiveStride int) float64 {
	return (grid + GridOffset(numFrames, effectiveStride)) * float64(effectiveStride) / fps
}

// AlignSegments converts segment boundaries from native frame coordinates to
// feature-grid coordinates, subtracting a per-video frame offset first for
// corpora with pre-chunked feature files. A nil input stays nil: a video
// without annotations has no segment tensor at all, not an empty one.
func AlignSegments(segs [][2]float64, frameOffset float64, numFrames, effectiveStride int) [][2]float64 {
	if segs == nil {
		return nil
	}
	out := make([][2]float64, len(segs))
	for i, seg := range segs {
		out[i][0] = FramesToGrid(seg[0]-frameOffset, numFrames, effectiveStride)
		out[i][1] = FramesToGrid(seg[1]-frameOffset, numFrames, effectiveStride)
	}
	return out
}
