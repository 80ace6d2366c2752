package imageset

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/events"
)

func part(setID string, index, total int) *events.ImageMessage {
	return &events.ImageMessage{
		ID:              fmt.Sprintf("%s-%d", setID, index),
		ContentProvider: events.LineContentProvider{},
		ImageSet:        &events.ImageSet{ID: setID, Index: index, Total: total},
	}
}

func TestBuffer_ReleaseReturnsPartsInOrder(t *testing.T) {
	buffer := New()
	parts := []*events.ImageMessage{part("s1", 1, 3), part("s1", 2, 3), part("s1", 3, 3)}
	for _, p := range parts {
		buffer.Append("s1", p)
	}
	if buffer.Pending("s1") != 3 {
		t.Fatalf("expected 3 pending parts, got %d", buffer.Pending("s1"))
	}

	released, err := buffer.Release("s1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(released) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(released))
	}
	for i := range parts {
		if released[i] != parts[i] {
			t.Fatalf("expected part %d to be %q, got %q", i, parts[i].ID, released[i].ID)
		}
	}
	if buffer.Len() != 0 {
		t.Fatalf("expected buffer to be empty after release, got %d", buffer.Len())
	}

	_, err = buffer.Release("s1")
	if !core.HasTextCode(err, core.ErrorUnknownImageSet) {
		t.Fatalf("expected unknown image set error on second release, got %v", err)
	}
}

func TestBuffer_ReleaseUnknownSet(t *testing.T) {
	_, err := New().Release("missing")
	if !core.HasTextCode(err, core.ErrorUnknownImageSet) {
		t.Fatalf("expected unknown image set error, got %v", err)
	}
	mapped := core.MapError(err)
	if mapped.Code != 500 {
		t.Fatalf("expected internal status, got %d", mapped.Code)
	}
	if mapped.Metadata["image_set_id"] != "missing" {
		t.Fatalf("expected set id metadata, got %#v", mapped.Metadata)
	}
}

func TestBuffer_SetsAreIndependent(t *testing.T) {
	buffer := New()
	buffer.Append("a", part("a", 1, 2))
	buffer.Append("b", part("b", 1, 2))
	buffer.Append("a", part("a", 2, 2))

	released, err := buffer.Release("a")
	if err != nil {
		t.Fatalf("release a: %v", err)
	}
	if len(released) != 2 || released[0].ID != "a-1" || released[1].ID != "a-2" {
		t.Fatalf("unexpected release for a: %d parts", len(released))
	}
	if buffer.Pending("b") != 1 || buffer.Len() != 1 {
		t.Fatalf("expected set b to stay buffered")
	}
}

func TestBuffer_ConcurrentAppendsDoNotLoseParts(t *testing.T) {
	buffer := New()
	const sets = 8
	const partsPerSet = 50

	var wg sync.WaitGroup
	for s := 0; s < sets; s++ {
		setID := fmt.Sprintf("set-%d", s)
		for i := 1; i <= partsPerSet; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				buffer.Append(setID, part(setID, index, partsPerSet))
			}(i)
		}
	}
	wg.Wait()

	if buffer.Len() != sets {
		t.Fatalf("expected %d sets, got %d", sets, buffer.Len())
	}
	for s := 0; s < sets; s++ {
		released, err := buffer.Release(fmt.Sprintf("set-%d", s))
		if err != nil {
			t.Fatalf("release set-%d: %v", s, err)
		}
		if len(released) != partsPerSet {
			t.Fatalf("expected %d parts for set-%d, got %d", partsPerSet, s, len(released))
		}
	}
}

func TestBuffer_EvictDropsStaleSets(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	buffer := New(WithClock(func() time.Time { return now }))

	buffer.Append("stale", part("stale", 1, 3))
	now = now.Add(10 * time.Minute)
	buffer.Append("fresh", part("fresh", 1, 3))

	if evicted := buffer.Evict(0); evicted != 0 {
		t.Fatalf("expected non-positive age to evict nothing, got %d", evicted)
	}
	if evicted := buffer.Evict(5 * time.Minute); evicted != 1 {
		t.Fatalf("expected one eviction, got %d", evicted)
	}
	if buffer.Pending("stale") != 0 || buffer.Pending("fresh") != 1 {
		t.Fatalf("expected only the stale set to be dropped")
	}
}
