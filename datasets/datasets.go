package datasets

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gotal/tal/annotations"
	"github.com/gotal/tal/features"
)

// This package assembles training and inference samples for temporal action
// localization over precomputed per-clip video features (CLIP, I3D).
//
// Datasets use lazy loading: the annotation database is parsed once at
// construction, and raw feature arrays are read from disk on every Get call.
// There is no caching layer; callers that need one should wrap the dataset.
// The record list and label dictionary are read-only after construction, so
// Get may be called from concurrent workers.

// Params configures a Dataset.
type Params struct {
	Name           string
	Loader         annotations.Loader
	AnnotationPath string
	Split          string

	Locator features.Locator
	// Reader decodes feature files; defaults to NPYReader.
	Reader features.Reader

	// Feature-extraction geometry.
	FeatStride     int
	NumFrames      int
	DownsampleRate int
	// InputDim, when non-zero, is validated against every loaded array.
	InputDim int

	NumClasses     int
	TIoUThresholds []float64

	// Training enables the truncation/cropping augmenter on retrieval.
	Training bool
	Trunc    TruncateOptions

	// Seed for augmentation windows; time-based when zero.
	Seed int64
}

// Attributes is dataset-wide metadata handed to evaluation code.
type Attributes struct {
	Name           string
	TIoUThresholds []float64
	EmptyLabelIDs  []int
}

// Dataset is an ordered collection of per-video feature samples for one
// split of a corpus.
type Dataset struct {
	Records []annotations.VideoRecord
	Dict    *annotations.LabelDict

	params Params

	mu  sync.Mutex
	rng *rand.Rand
}

// New parses the annotation database for the configured split and returns a
// ready dataset. Construction fails fast: any load-time error aborts with no
// partial dataset.
func New(p Params) (*Dataset, error) {
	if p.Loader == nil {
		return nil, fmt.Errorf("dataset %s: no annotation loader", p.Name)
	}
	if p.FeatStride <= 0 || p.NumFrames <= 0 {
		return nil, fmt.Errorf("dataset %s: feature stride and frame count must be positive", p.Name)
	}
	if p.Reader == nil {
		p.Reader = features.NPYReader{}
	}
	if p.DownsampleRate <= 0 {
		p.DownsampleRate = 1
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}

	records, dict, err := p.Loader.Load(p.AnnotationPath, p.Split)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Records: records,
		Dict:    dict,
		params:  p,
		rng:     rand.New(rand.NewSource(p.Seed)),
	}, nil
}

// Len returns the number of videos in the split.
func (d *Dataset) Len() int { return len(d.Records) }

// Attributes returns dataset-wide metadata, including the class indices that
// never occur in the loaded records.
func (d *Dataset) Attributes() Attributes {
	return Attributes{
		Name:           d.params.Name,
		TIoUThresholds: d.params.TIoUThresholds,
		EmptyLabelIDs:  annotations.EmptyClasses(d.Dict, d.params.NumClasses, d.Records),
	}
}

// Get builds the sample for the i-th video: it loads (and, for multi-root
// corpora, temporally concatenates) the raw feature arrays, applies
// downsampling, converts segments to feature-grid coordinates, and in
// training mode runs the truncation/cropping augmenter. Each call re-reads
// the feature file(s) and returns a fresh sample.
func (d *Dataset) Get(i int) (*FeatureSample, error) {
	if i < 0 || i >= len(d.Records) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(d.Records))
	}
	rec := &d.Records[i]

	arr, err := d.params.Locator.LoadConcat(d.params.Reader, rec.ID)
	if err != nil {
		return nil, err
	}
	if d.params.InputDim > 0 && arr.Cols != d.params.InputDim {
		return nil, fmt.Errorf("video %s: feature dim %d, expected %d", rec.ID, arr.Cols, d.params.InputDim)
	}
	arr = arr.Downsample(d.params.DownsampleRate)

	strideEff := EffectiveStride(d.params.FeatStride, d.params.DownsampleRate)
	s := &FeatureSample{
		ID:         rec.ID,
		Feats:      arr,
		FPS:        rec.FPS,
		Duration:   rec.Duration,
		FeatStride: strideEff,
		NumFrames:  d.params.NumFrames,
	}
	if rec.Annotated() {
		s.Segments = AlignSegments(rec.Segments, rec.FrameOffset, d.params.NumFrames, strideEff)
		s.Labels = append([]int(nil), rec.Labels...)
	}

	if d.params.Training {
		d.mu.Lock()
		s = Truncate(s, d.params.Trunc, d.rng)
		d.mu.Unlock()
	}
	return s, nil
}
