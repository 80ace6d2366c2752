package imageset

import (
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/events"
)

// Buffer accumulates the parts of image sets until the caller releases them.
// It has no notion of completeness; the router decides when a set is done.
type Buffer struct {
	mu   sync.Mutex
	sets map[string]*pending
	now  func() time.Time
}

type pending struct {
	parts     []*events.ImageMessage
	updatedAt time.Time
}

type Option func(*Buffer)

func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

func New(opts ...Option) *Buffer {
	buffer := &Buffer{
		sets: map[string]*pending{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(buffer)
		}
	}
	return buffer
}

// Append adds part to the sequence for setID, creating it when absent. Parts
// keep arrival order.
func (b *Buffer) Append(setID string, part *events.ImageMessage) {
	setID = strings.TrimSpace(setID)
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.sets[setID]
	if !ok {
		set = &pending{}
		b.sets[setID] = set
	}
	set.parts = append(set.parts, part)
	set.updatedAt = now
}

// Release removes and returns every part buffered for setID.
func (b *Buffer) Release(setID string) ([]*events.ImageMessage, error) {
	setID = strings.TrimSpace(setID)

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.sets[setID]
	if !ok || len(set.parts) == 0 {
		return nil, UnknownSetError(setID)
	}
	delete(b.sets, setID)
	return set.parts, nil
}

// Len reports how many sets are waiting for release.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sets)
}

// Pending reports how many parts are buffered for setID.
func (b *Buffer) Pending(setID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.sets[strings.TrimSpace(setID)]; ok {
		return len(set.parts)
	}
	return 0
}

// Evict drops sets that have not received a part within olderThan and
// returns how many were dropped.
func (b *Buffer) Evict(olderThan time.Duration) int {
	if olderThan <= 0 {
		return 0
	}
	cutoff := b.now().Add(-olderThan)

	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for id, set := range b.sets {
		if set.updatedAt.Before(cutoff) {
			delete(b.sets, id)
			evicted++
		}
	}
	return evicted
}

// UnknownSetError reports a release for a set with nothing buffered. It marks
// a caller bug, not bad input.
func UnknownSetError(setID string) error {
	return core.NewError(
		fmt.Sprintf("imageset: no parts buffered for set %q", setID),
		goerrors.CategoryInternal,
		core.ErrorUnknownImageSet,
		map[string]any{"image_set_id": setID},
	)
}
