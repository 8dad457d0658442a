package annotations

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// This package parses JSON annotation databases describing a video corpus
// (EPIC-Kitchens, EGO4D, or generically structured) into an in-memory list of
// per-video records with their action segments, plus a dense label
// dictionary shared read-only by every split built from the same file.
//
// The record list and the dictionary are immutable after loading and safe to
// share across concurrent sample-fetch workers.

// DurationUnknown is the sentinel stored when a video's duration is absent
// from the annotation file. It is large enough that bound checks never reject
// a legitimate segment.
const DurationUnknown = 1e8

// VideoRecord is one entry per video in the corpus. Segments are expressed in
// native video-frame coordinates (annotation seconds multiplied by the
// video's frame-rate); conversion to feature-grid units happens at sample
// retrieval time.
//
// Segments and Labels are both nil or both non-nil with equal lengths. A nil
// pair means the video has zero annotated actions, which is distinct from an
// empty annotation list that was never processed.
type VideoRecord struct {
	ID       string
	FPS      float64
	Duration float64
	Segments [][2]float64
	Labels   []int

	// FrameOffset is a per-video frame offset used by corpora whose raw
	// feature files are pre-chunked; zero everywhere else.
	FrameOffset float64
}

// Annotated reports whether the video carries any action segments.
func (r *VideoRecord) Annotated() bool { return r.Segments != nil }

// rawDatabase mirrors the on-disk annotation schema.
type rawDatabase struct {
	Database map[string]rawVideo `json:"database"`
}

type rawVideo struct {
	Subset      string          `json:"subset"`
	FPS         *float64        `json:"fps"`
	Duration    *float64        `json:"duration"`
	FrameOffset *float64        `json:"offset"`
	Annotations []rawAnnotation `json:"annotations"`
}

type rawAnnotation struct {
	Label   string          `json:"label"`
	LabelID json.RawMessage `json:"label_id"`
	Segment []float64       `json:"segment"`
}

// labelKey returns the raw identifier used as the dictionary key: the string
// label when present, otherwise the label_id field (which some corpora store
// as a number and others as a string).
func (a *rawAnnotation) labelKey() (string, error) {
	if a.Label != "" {
		return a.Label, nil
	}
	if len(a.LabelID) > 0 {
		return strings.Trim(string(a.LabelID), `"`), nil
	}
	return "", fmt.Errorf("annotation has neither label nor label_id")
}

// readDatabase parses the annotation JSON file. Malformed JSON is fatal and
// propagates unchanged.
func readDatabase(path string) (map[string]rawVideo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file %s: %w", path, err)
	}
	var db rawDatabase
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to parse annotation file %s: %w", path, err)
	}
	if db.Database == nil {
		return nil, fmt.Errorf("annotation file %s has no database mapping", path)
	}
	return db.Database, nil
}

// sortedIDs returns the database's video ids in lexical order. Go randomizes
// map iteration, so every pass over the database goes through this to keep
// record order and label-index assignment deterministic.
func sortedIDs(db map[string]rawVideo) []string {
	ids := make([]string, 0, len(db))
	for id := range db {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
