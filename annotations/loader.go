package annotations

import (
	"fmt"
	"strings"

	"github.com/gotal/tal/features"
	"github.com/gotal/tal/logging"
)

// Loader turns an annotation database file plus a split name into the
// ordered record list for that split and the label dictionary shared by all
// splits. Implementations differ only in per-corpus policy: where fps comes
// from, whether feature-file existence is verified at load time, and which
// per-video extras are read.
type Loader interface {
	Load(path, split string) ([]VideoRecord, *LabelDict, error)
}

// Options configures a loader.
type Options struct {
	// FPS is a dataset-wide frame-rate override. When zero, each video must
	// carry its own fps field.
	FPS float64

	// Locator resolves feature paths; multi-root corpora use it to drop
	// videos with incomplete chunk sets at load time.
	Locator features.Locator

	// LabelDict, when non-nil, is used frozen: it must already map every
	// label encountered, and no new entries are discovered from the data.
	LabelDict *LabelDict
}

// NewLoader selects a loader strategy by corpus kind: "generic" (the zero
// value), "epic_kitchens", or "ego4d".
func NewLoader(kind string, opts Options) (Loader, error) {
	switch kind {
	case "", "generic":
		return &GenericLoader{Options: opts}, nil
	case "epic_kitchens":
		return &EpicKitchensLoader{Options: opts}, nil
	case "ego4d":
		return &Ego4DLoader{Options: opts}, nil
	default:
		return nil, &ConfigurationError{Field: "kind", Msg: fmt.Sprintf("unknown corpus kind %q", kind)}
	}
}

// GenericLoader handles single-root corpora with per-video or dataset-wide
// fps. Feature-file existence is not checked at load time; a missing file
// surfaces as MissingFeatureFileError at sample retrieval.
type GenericLoader struct {
	Options
}

func (l *GenericLoader) Load(path, split string) ([]VideoRecord, *LabelDict, error) {
	return loadDatabase(path, split, l.Options, false)
}

// EpicKitchensLoader handles EPIC-Kitchens-style corpora: a mandatory
// dataset-wide fps (the features are extracted at a fixed rate regardless of
// source video metadata) and a per-video frame offset for pre-chunked
// feature files. Single feature root.
type EpicKitchensLoader struct {
	Options
}

func (l *EpicKitchensLoader) Load(path, split string) ([]VideoRecord, *LabelDict, error) {
	if l.FPS <= 0 {
		return nil, nil, &ConfigurationError{Field: "fps", Msg: "epic_kitchens requires a dataset-wide fps"}
	}
	return loadDatabase(path, split, l.Options, false)
}

// Ego4DLoader handles EGO4D-style corpora whose features are chunked across
// multiple roots. Videos missing a chunk under any root are silently dropped
// from the split at load time (logged at debug level).
type Ego4DLoader struct {
	Options
}

func (l *Ego4DLoader) Load(path, split string) ([]VideoRecord, *LabelDict, error) {
	return loadDatabase(path, split, l.Options, true)
}

// loadDatabase is the shared loading core. It parses the JSON database,
// builds or reuses the label dictionary over the full database, and
// assembles records for the requested split in sorted-id order.
func loadDatabase(path, split string, opts Options, requireAllRoots bool) ([]VideoRecord, *LabelDict, error) {
	log := logging.WithComponent("annotations")

	db, err := readDatabase(path)
	if err != nil {
		return nil, nil, err
	}

	dict := opts.LabelDict
	if dict == nil {
		dict, err = BuildLabelDict(db)
		if err != nil {
			return nil, nil, err
		}
		dict.Freeze()
	}

	var records []VideoRecord
	for _, id := range sortedIDs(db) {
		raw := db[id]

		// A missing subset field matches no split. Intentional filtering,
		// not an error.
		if raw.Subset == "" || !strings.EqualFold(raw.Subset, split) {
			continue
		}
		if requireAllRoots && !opts.Locator.ExistsAll(id) {
			log.Debug().Str("video", id).Msg("dropping video with incomplete feature chunks")
			continue
		}

		rec, err := buildRecord(id, raw, opts, dict)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, *rec)
	}

	if len(records) == 0 {
		log.Warn().Str("split", split).Str("path", path).Msg("split matched zero videos")
	}
	return records, dict, nil
}

func buildRecord(id string, raw rawVideo, opts Options, dict *LabelDict) (*VideoRecord, error) {
	fps := opts.FPS
	if fps <= 0 {
		if raw.FPS == nil || *raw.FPS <= 0 {
			return nil, &ConfigurationError{
				Field: "fps",
				Msg:   fmt.Sprintf("video %s has no fps and no dataset-wide fps was configured", id),
			}
		}
		fps = *raw.FPS
	}

	duration := float64(DurationUnknown)
	if raw.Duration != nil && *raw.Duration > 0 {
		duration = *raw.Duration
	}

	rec := &VideoRecord{ID: id, FPS: fps, Duration: duration}
	if raw.FrameOffset != nil {
		rec.FrameOffset = *raw.FrameOffset
	}

	if len(raw.Annotations) == 0 {
		// Zero annotated actions: segments and labels stay absent so the
		// augmenter knows not to apply label-constrained cropping.
		return rec, nil
	}

	rec.Segments = make([][2]float64, 0, len(raw.Annotations))
	rec.Labels = make([]int, 0, len(raw.Annotations))
	for i := range raw.Annotations {
		a := &raw.Annotations[i]
		if len(a.Segment) != 2 {
			return nil, &ValidationError{VideoID: id, Msg: fmt.Sprintf("segment has %d bounds, want 2", len(a.Segment))}
		}
		if a.Segment[1] <= a.Segment[0] {
			return nil, &ValidationError{
				VideoID: id,
				Msg:     fmt.Sprintf("segment [%g, %g] has non-increasing bounds", a.Segment[0], a.Segment[1]),
			}
		}
		key, err := a.labelKey()
		if err != nil {
			return nil, &ValidationError{VideoID: id, Msg: err.Error()}
		}
		cls, ok := dict.Index(key)
		if !ok {
			return nil, &ValidationError{VideoID: id, Msg: fmt.Sprintf("label %q not in supplied dictionary", key)}
		}
		// Annotation seconds to native frame coordinates.
		rec.Segments = append(rec.Segments, [2]float64{a.Segment[0] * fps, a.Segment[1] * fps})
		rec.Labels = append(rec.Labels, cls)
	}
	return rec, nil
}
