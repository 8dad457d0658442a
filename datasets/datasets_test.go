package datasets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gotal/tal/annotations"
	"github.com/gotal/tal/config"
	"github.com/gotal/tal/features"
)

// writeNPY writes a little-endian float32 npy v1 file filled with a
// constant value.
func writeNPY(t *testing.T, path string, rows, cols int, value float32) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create npy %s: %v", path, err)
	}
	defer f.Close()

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	total := 10 + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := f.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		t.Fatalf("failed to write magic: %v", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("failed to write header length: %v", err)
	}
	if _, err := f.WriteString(header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	buf := make([]byte, 4*rows*cols)
	for i := 0; i < rows*cols; i++ {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(value))
	}
	if _, err := f.Write(buf); err != nil {
		t.Fatalf("failed to write data: %v", err)
	}
}

func writeAnnotations(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "db.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write annotations: %v", err)
	}
	return path
}

func singleRootFixture(t *testing.T) (annPath string, loc features.Locator) {
	t.Helper()
	tmp := t.TempDir()
	root := filepath.Join(tmp, "feats")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeNPY(t, filepath.Join(root, "vid.npy"), 60, 4, 1.5)

	annPath = writeAnnotations(t, tmp, `{"database": {
		"vid": {
			"subset": "train", "fps": 30, "duration": 8.0,
			"annotations": [{"label": "pour", "segment": [2.0, 5.0]}]
		},
		"zz_ghost": {
			"subset": "train", "fps": 30,
			"annotations": [{"label": "stir", "segment": [1.0, 3.0]}]
		}
	}}`)
	loc = features.Locator{Roots: []string{root}, Ext: ".npy"}
	return annPath, loc
}

func TestDataset_GetAlignsSegments(t *testing.T) {
	annPath, loc := singleRootFixture(t)
	loader, _ := annotations.NewLoader("generic", annotations.Options{})

	ds, err := New(Params{
		Name:           "toy",
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
		InputDim:       4,
		NumClasses:     2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ds.Len())
	}

	s, err := ds.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.Feats.Rows != 60 || s.Feats.Cols != 4 {
		t.Fatalf("unexpected feature shape [%d, %d]", s.Feats.Rows, s.Feats.Cols)
	}
	// fps=30, stride=4, 16 frames/feature: [2.0s, 5.0s] -> [13.0, 35.5].
	if s.Segments[0] != [2]float64{13.0, 35.5} {
		t.Fatalf("aligned segment = %v, want [13 35.5]", s.Segments[0])
	}
	if s.FPS != 30 || s.Duration != 8.0 || s.FeatStride != 4 || s.NumFrames != 16 {
		t.Fatalf("metadata not passed through: %+v", s)
	}
}

func TestDataset_Downsampling(t *testing.T) {
	annPath, loc := singleRootFixture(t)
	loader, _ := annotations.NewLoader("generic", annotations.Options{})

	ds, err := New(Params{
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
		DownsampleRate: 2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.Feats.Rows != 30 {
		t.Fatalf("expected 30 rows after 2x downsampling, got %d", s.Feats.Rows)
	}
	// Effective stride 8: offset = 0.5*16/8 = 1; [2s, 5s] -> [6.5, 17.75].
	if s.FeatStride != 8 {
		t.Fatalf("effective stride = %d, want 8", s.FeatStride)
	}
	if s.Segments[0] != [2]float64{6.5, 17.75} {
		t.Fatalf("aligned segment = %v, want [6.5 17.75]", s.Segments[0])
	}
}

func TestDataset_MissingFeatureFile(t *testing.T) {
	annPath, loc := singleRootFixture(t)
	loader, _ := annotations.NewLoader("generic", annotations.Options{})

	ds, err := New(Params{
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// "zz_ghost" is in the split (single-root corpora don't pre-check), but
	// its feature file is absent; retrieval fails loudly for that sample only.
	_, err = ds.Get(1)
	var missing *features.MissingFeatureFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFeatureFileError, got %v", err)
	}
	if _, err := ds.Get(0); err != nil {
		t.Fatalf("other samples must stay retrievable: %v", err)
	}
}

func TestDataset_MultiRootConcatenation(t *testing.T) {
	tmp := t.TempDir()
	r1 := filepath.Join(tmp, "clip")
	r2 := filepath.Join(tmp, "egovlp")
	for _, r := range []string{r1, r2} {
		if err := os.MkdirAll(r, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeNPY(t, filepath.Join(r1, "vid.npy"), 100, 8, 1)
	writeNPY(t, filepath.Join(r2, "vid.npy"), 50, 8, 2)

	annPath := writeAnnotations(t, tmp, `{"database": {
		"vid": {"subset": "train", "fps": 30, "annotations": [{"label": "x", "segment": [1.0, 2.0]}]}
	}}`)

	loc := features.Locator{Roots: []string{r1, r2}, Ext: ".npy"}
	loader, _ := annotations.NewLoader("ego4d", annotations.Options{Locator: loc})
	ds, err := New(Params{
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.Feats.Rows != 150 || s.Feats.Cols != 8 {
		t.Fatalf("expected [150, 8] after chunk concatenation, got [%d, %d]", s.Feats.Rows, s.Feats.Cols)
	}
}

func TestDataset_TrainingTruncation(t *testing.T) {
	annPath, loc := singleRootFixture(t)
	loader, _ := annotations.NewLoader("generic", annotations.Options{})

	ds, err := New(Params{
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
		Training:       true,
		Trunc:          TruncateOptions{MaxSeqLen: 16, TruncThresh: 0.1},
		Seed:           42,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.Feats.Rows > 16 {
		t.Fatalf("training sample exceeds length bound: %d rows", s.Feats.Rows)
	}
}

func TestDataset_Attributes(t *testing.T) {
	annPath, loc := singleRootFixture(t)
	loader, _ := annotations.NewLoader("generic", annotations.Options{})

	ds, err := New(Params{
		Name:           "toy",
		Loader:         loader,
		AnnotationPath: annPath,
		Split:          "train",
		Locator:        loc,
		FeatStride:     4,
		NumFrames:      16,
		NumClasses:     4,
		TIoUThresholds: []float64{0.3, 0.5, 0.7},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	attrs := ds.Attributes()
	if attrs.Name != "toy" {
		t.Fatalf("unexpected name %q", attrs.Name)
	}
	if len(attrs.TIoUThresholds) != 3 {
		t.Fatalf("unexpected tiou thresholds %v", attrs.TIoUThresholds)
	}
	// Classes 0 ("pour") and 1 ("stir") are observed; 2 and 3 are not.
	want := []int{2, 3}
	if len(attrs.EmptyLabelIDs) != 2 || attrs.EmptyLabelIDs[0] != want[0] || attrs.EmptyLabelIDs[1] != want[1] {
		t.Fatalf("EmptyLabelIDs = %v, want %v", attrs.EmptyLabelIDs, want)
	}
}

func TestFromConfig(t *testing.T) {
	annPath, loc := singleRootFixture(t)

	cfg := config.Default()
	cfg.Dataset.Name = "toy"
	cfg.Dataset.JSONFile = annPath
	cfg.Dataset.Split = "train"
	cfg.Dataset.FeatFolders = loc.Roots
	cfg.Dataset.FeatStride = 4
	cfg.Dataset.NumFrames = 16
	cfg.Dataset.NumClasses = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	ds, err := FromConfig(cfg, "", false)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ds.Len())
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.Segments[0] != [2]float64{13.0, 35.5} {
		t.Fatalf("aligned segment = %v, want [13 35.5]", s.Segments[0])
	}
}
