package features

import (
	"fmt"
	"os"
	"path/filepath"
)

// MissingFeatureFileError reports that a referenced feature file was absent
// at sample-retrieval time. It is fatal for that sample only; the caller gets
// it synchronously and no retry is attempted.
type MissingFeatureFileError struct {
	VideoID string
	Path    string
}

func (e *MissingFeatureFileError) Error() string {
	return fmt.Sprintf("feature file for video %s not found: %s", e.VideoID, e.Path)
}

// Locator resolves a video id to its on-disk feature-array path(s). For
// single-root corpora it yields exactly one path; for multi-root corpora
// (pre-chunked features) one path per root, in root-declaration order.
//
// Existence policy differs by corpus shape: multi-root corpora check all
// roots at database-load time via ExistsAll and drop unresolvable videos from
// the split, while single-root corpora defer the check to load time, where a
// missing file raises MissingFeatureFileError.
type Locator struct {
	Roots  []string
	Prefix string
	Ext    string
}

// Path builds the feature-file path for a video under one root.
func (l Locator) Path(root, videoID string) string {
	return filepath.Join(root, l.Prefix+videoID+l.Ext)
}

// Resolve returns the feature-file path per root for the video. It performs
// no existence check.
func (l Locator) Resolve(videoID string) []string {
	paths := make([]string, len(l.Roots))
	for i, root := range l.Roots {
		paths[i] = l.Path(root, videoID)
	}
	return paths
}

// MultiRoot reports whether the locator spans more than one feature root.
func (l Locator) MultiRoot() bool { return len(l.Roots) > 1 }

// ExistsAll reports whether a feature file is present under every root for
// the video. Used by multi-root database loading to filter out videos whose
// chunks are incomplete.
func (l Locator) ExistsAll(videoID string) bool {
	for _, p := range l.Resolve(videoID) {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// LoadConcat reads the video's feature array from every root and
// concatenates the chunks along the temporal axis, modeling multiple clips
// of the same video stored as separate files. This is not channel-wise
// fusion; every chunk must share the same feature dimension.
func (l Locator) LoadConcat(r Reader, videoID string) (*Array, error) {
	if len(l.Roots) == 0 {
		return nil, fmt.Errorf("locator has no feature roots")
	}
	chunks := make([]*Array, 0, len(l.Roots))
	for _, path := range l.Resolve(videoID) {
		if _, err := os.Stat(path); err != nil {
			return nil, &MissingFeatureFileError{VideoID: videoID, Path: path}
		}
		arr, err := r.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read features for video %s: %w", videoID, err)
		}
		chunks = append(chunks, arr)
	}
	if len(chunks) == 1 {
		return chunks[0], nil
	}
	return Concat(chunks)
}
