package annotations

import (
	"reflect"
	"testing"
)

func recordsWithLabels(labelSets ...[]int) []VideoRecord {
	records := make([]VideoRecord, len(labelSets))
	for i, labels := range labelSets {
		records[i] = VideoRecord{ID: "v", FPS: 30, Labels: labels}
	}
	return records
}

func TestEmptyClasses_ShortCircuit(t *testing.T) {
	dict := NewLabelDict()
	dict.add("a")
	dict.add("b")

	// Dictionary already covers every declared class: nothing to report,
	// even without looking at the records.
	if got := EmptyClasses(dict, 2, nil); len(got) != 0 {
		t.Fatalf("expected no empty classes, got %v", got)
	}
}

func TestEmptyClasses_AllObserved(t *testing.T) {
	dict := NewLabelDict()
	dict.add("a")

	records := recordsWithLabels([]int{0, 1}, []int{2})
	if got := EmptyClasses(dict, 3, records); len(got) != 0 {
		t.Fatalf("expected no empty classes, got %v", got)
	}
}

func TestEmptyClasses_MissingIndices(t *testing.T) {
	dict := NewLabelDict()
	dict.add("a")
	dict.add("b")

	records := recordsWithLabels([]int{1}, []int{4, 1})
	got := EmptyClasses(dict, 5, records)
	want := []int{0, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EmptyClasses = %v, want %v", got, want)
	}
}

func TestEmptyClasses_IgnoresUnannotatedRecords(t *testing.T) {
	dict := NewLabelDict()
	dict.add("a")

	records := []VideoRecord{{ID: "v", FPS: 30}}
	got := EmptyClasses(dict, 2, records)
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EmptyClasses = %v, want %v", got, want)
	}
}

func TestBuildLabelDict_Deterministic(t *testing.T) {
	db := map[string]rawVideo{
		"b_vid": {Annotations: []rawAnnotation{
			{Label: "second", Segment: []float64{1, 2}},
		}},
		"a_vid": {Annotations: []rawAnnotation{
			{Label: "first", Segment: []float64{1, 2}},
			{Label: "second", Segment: []float64{3, 4}},
		}},
	}
	for trial := 0; trial < 5; trial++ {
		dict, err := BuildLabelDict(db)
		if err != nil {
			t.Fatalf("BuildLabelDict failed: %v", err)
		}
		// First occurrence over sorted video ids: a_vid's labels come first.
		if idx, _ := dict.Index("first"); idx != 0 {
			t.Fatalf("trial %d: 'first' has index %d, want 0", trial, idx)
		}
		if idx, _ := dict.Index("second"); idx != 1 {
			t.Fatalf("trial %d: 'second' has index %d, want 1", trial, idx)
		}
	}
}
