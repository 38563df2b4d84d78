package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMergeCoalescesPerEntity(t *testing.T) {
	cs := NewChangeSet()
	t0 := time.Unix(1000, 0)

	cs.Merge("row-1", map[string]any{"a": 1}, t0)
	cs.Merge("row-1", map[string]any{"a": 2, "b": 3}, t0.Add(10*time.Second))

	if cs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", cs.Len())
	}
	entry, ok := cs.Get("row-1")
	if !ok {
		t.Fatal("entry for row-1 missing")
	}
	want := map[string]any{"a": 2, "b": 3}
	if diff := cmp.Diff(want, entry.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsQueuedAt(t *testing.T) {
	cs := NewChangeSet()
	t0 := time.Unix(1000, 0)

	cs.Merge("row-1", map[string]any{"a": 1}, t0)
	cs.Merge("row-1", map[string]any{"a": 2}, t0.Add(time.Minute))

	entry, _ := cs.Get("row-1")
	if !entry.QueuedAt.Equal(t0) {
		t.Errorf("QueuedAt = %v, want %v (must not advance on merge)", entry.QueuedAt, t0)
	}
}

func TestOldest(t *testing.T) {
	cs := NewChangeSet()
	if _, ok := cs.Oldest(); ok {
		t.Fatal("Oldest() on empty set reported a time")
	}

	t0 := time.Unix(1000, 0)
	cs.Merge("row-2", map[string]any{"a": 1}, t0.Add(5*time.Second))
	cs.Merge("row-1", map[string]any{"a": 1}, t0)

	oldest, ok := cs.Oldest()
	if !ok || !oldest.Equal(t0) {
		t.Errorf("Oldest() = %v, %v, want %v, true", oldest, ok, t0)
	}
}

func TestRecordsOrderedByQueueTime(t *testing.T) {
	cs := NewChangeSet()
	t0 := time.Unix(1000, 0)
	cs.Merge("row-b", map[string]any{"x": 1}, t0.Add(2*time.Second))
	cs.Merge("row-a", map[string]any{"x": 2}, t0)
	cs.Merge("row-c", map[string]any{"x": 3}, t0.Add(time.Second))

	stamp := t0.Add(time.Minute)
	records := cs.Records(stamp)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
		if !r.UpdatedAt.Equal(stamp) {
			t.Errorf("record %s UpdatedAt = %v, want %v", r.ID, r.UpdatedAt, stamp)
		}
	}
	want := []string{"row-a", "row-c", "row-b"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsCopiesFields(t *testing.T) {
	cs := NewChangeSet()
	cs.Merge("row-1", map[string]any{"a": 1}, time.Unix(1000, 0))

	records := cs.Records(time.Unix(2000, 0))
	records[0].Fields["a"] = 99

	entry, _ := cs.Get("row-1")
	if entry.Fields["a"] != 1 {
		t.Error("mutating the records payload leaked into the pending set")
	}
}

func TestMergeUnder(t *testing.T) {
	t0 := time.Unix(1000, 0)

	snapshot := NewChangeSet()
	snapshot.Merge("row-1", map[string]any{"a": 1, "b": 2}, t0)
	snapshot.Merge("row-2", map[string]any{"c": 3}, t0)

	current := NewChangeSet()
	current.Merge("row-1", map[string]any{"a": 10}, t0.Add(time.Minute))

	current.MergeUnder(snapshot)

	if current.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", current.Len())
	}
	entry, _ := current.Get("row-1")
	want := map[string]any{"a": 10, "b": 2}
	if diff := cmp.Diff(want, entry.Fields); diff != "" {
		t.Errorf("newer fields must win (-want +got):\n%s", diff)
	}
	if !entry.QueuedAt.Equal(t0) {
		t.Errorf("QueuedAt = %v, want the snapshot's older %v", entry.QueuedAt, t0)
	}
	if _, ok := current.Get("row-2"); !ok {
		t.Error("row-2 from the snapshot was lost")
	}
}

func TestClear(t *testing.T) {
	cs := NewChangeSet()
	cs.Merge("row-1", map[string]any{"a": 1}, time.Unix(1000, 0))
	cs.Clear()

	if !cs.Empty() {
		t.Error("Clear() left entries behind")
	}
}
