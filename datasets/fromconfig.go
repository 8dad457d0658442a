package datasets

import (
	"github.com/gotal/tal/annotations"
	"github.com/gotal/tal/config"
	"github.com/gotal/tal/features"
)

// FromConfig builds a dataset for one split from a corpus config. The split
// argument overrides the config's split when non-empty, so train and
// validation datasets can share one file.
func FromConfig(cfg *config.Config, split string, training bool) (*Dataset, error) {
	d := &cfg.Dataset
	if split == "" {
		split = d.Split
	}

	locator := features.Locator{
		Roots:  d.FeatFolders,
		Prefix: d.FilePrefix,
		Ext:    d.FileExt,
	}
	loader, err := annotations.NewLoader(d.Kind, annotations.Options{
		FPS:     d.FPS,
		Locator: locator,
	})
	if err != nil {
		return nil, err
	}

	trunc := TruncateOptions{
		MaxSeqLen:   d.MaxSeqLen,
		TruncThresh: d.TruncThresh,
	}
	if len(d.CropRatio) == 2 {
		trunc.CropRatio = &[2]float64{d.CropRatio[0], d.CropRatio[1]}
	}

	return New(Params{
		Name:           d.Name,
		Loader:         loader,
		AnnotationPath: d.JSONFile,
		Split:          split,
		Locator:        locator,
		FeatStride:     d.FeatStride,
		NumFrames:      d.NumFrames,
		DownsampleRate: d.DownsampleRate,
		InputDim:       d.InputDim,
		NumClasses:     d.NumClasses,
		TIoUThresholds: d.TIoUThresholds,
		Training:       training,
		Trunc:          trunc,
	})
}
