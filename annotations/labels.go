package annotations

import "sort"

// LabelDict maps raw label identifiers to dense zero-based class indices. It
// is built once from the full annotation database and shared read-only across
// every split built from that database, so class indices are identical no
// matter which split is constructed first.
type LabelDict struct {
	index  map[string]int
	names  []string
	frozen bool
}

// NewLabelDict returns an empty, unfrozen dictionary.
func NewLabelDict() *LabelDict {
	return &LabelDict{index: make(map[string]int)}
}

// BuildLabelDict scans every video's annotations in the full database (never
// just one split) and assigns each distinct raw label a dense index in
// first-occurrence order, iterating videos in sorted-id order. Given the same
// annotation file the assignment is identical across runs and across splits.
func BuildLabelDict(db map[string]rawVideo) (*LabelDict, error) {
	dict := NewLabelDict()
	for _, id := range sortedIDs(db) {
		for i := range db[id].Annotations {
			key, err := db[id].Annotations[i].labelKey()
			if err != nil {
				return nil, &ValidationError{VideoID: id, Msg: err.Error()}
			}
			dict.add(key)
		}
	}
	return dict, nil
}

// Freeze marks the dictionary read-only. A frozen dictionary rejects unknown
// labels during loading instead of discovering new entries; pre-supplied
// dictionaries are always used frozen.
func (d *LabelDict) Freeze() { d.frozen = true }

// Frozen reports whether the dictionary is read-only.
func (d *LabelDict) Frozen() bool { return d.frozen }

// Len returns the number of distinct labels.
func (d *LabelDict) Len() int { return len(d.names) }

// Index returns the dense class index for a raw label id.
func (d *LabelDict) Index(raw string) (int, bool) {
	idx, ok := d.index[raw]
	return idx, ok
}

// Name returns the raw label id for a dense class index, or "" when the
// index is out of range.
func (d *LabelDict) Name(idx int) string {
	if idx < 0 || idx >= len(d.names) {
		return ""
	}
	return d.names[idx]
}

// Names returns the raw label ids in dense-index order.
func (d *LabelDict) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

func (d *LabelDict) add(raw string) int {
	if idx, ok := d.index[raw]; ok {
		return idx
	}
	idx := len(d.names)
	d.index[raw] = idx
	d.names = append(d.names, raw)
	return idx
}

// EmptyClasses returns the sorted class indices in [0, numClasses) with zero
// occurrences across the loaded records. When the dictionary already covers
// every declared class it short-circuits to an empty result. Pure diagnostic;
// no side effects.
func EmptyClasses(dict *LabelDict, numClasses int, records []VideoRecord) []int {
	if dict.Len() == numClasses {
		return nil
	}
	seen := make(map[int]bool)
	for i := range records {
		for _, l := range records[i].Labels {
			seen[l] = true
		}
	}
	var empty []int
	for c := 0; c < numClasses; c++ {
		if !seen[c] {
			empty = append(empty, c)
		}
	}
	sort.Ints(empty)
	return empty
}
