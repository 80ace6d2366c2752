package webhooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultClaimLease = 30 * time.Second
	defaultKeyTTL     = 10 * time.Minute
)

// DeliveryLedger remembers webhook event ids so redelivered events that
// already completed are dropped. A failed claim can be claimed again.
type DeliveryLedger interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, claimed bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error) error
}

type claimStatus string

const (
	claimStatusProcessing claimStatus = "processing"
	claimStatusFailed     claimStatus = "failed"
	claimStatusComplete   claimStatus = "complete"
)

type claimEntry struct {
	Status    claimStatus
	ClaimID   string
	Attempts  int
	ExpiresAt time.Time
}

// MemoryDeliveryLedger is an in-process DeliveryLedger. Completed keys are
// kept for KeyTTL.
type MemoryDeliveryLedger struct {
	mu      sync.Mutex
	entries map[string]claimEntry
	claims  map[string]string
	nextID  int
	KeyTTL  time.Duration
	Now     func() time.Time
}

func NewMemoryDeliveryLedger(keyTTL time.Duration) *MemoryDeliveryLedger {
	if keyTTL <= 0 {
		keyTTL = defaultKeyTTL
	}
	return &MemoryDeliveryLedger{
		entries: map[string]claimEntry{},
		claims:  map[string]string{},
		KeyTTL:  keyTTL,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (l *MemoryDeliveryLedger) Claim(_ context.Context, key string, lease time.Duration) (string, bool, error) {
	if l == nil {
		return "", false, fmt.Errorf("webhooks: delivery ledger is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("webhooks: delivery key is required")
	}
	if lease <= 0 {
		lease = defaultClaimLease
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpiredLocked(now)

	entry, exists := l.entries[key]
	if exists {
		switch entry.Status {
		case claimStatusComplete, claimStatusProcessing:
			if now.Before(entry.ExpiresAt) {
				return "", false, nil
			}
		}
		if entry.ClaimID != "" {
			delete(l.claims, entry.ClaimID)
		}
	}
	l.nextID++
	claimID := fmt.Sprintf("claim_%d", l.nextID)
	l.entries[key] = claimEntry{
		Status:    claimStatusProcessing,
		ClaimID:   claimID,
		Attempts:  entry.Attempts + 1,
		ExpiresAt: now.Add(lease),
	}
	l.claims[claimID] = key
	return claimID, true, nil
}

func (l *MemoryDeliveryLedger) Complete(_ context.Context, claimID string) error {
	return l.settle(claimID, claimStatusComplete)
}

func (l *MemoryDeliveryLedger) Fail(_ context.Context, claimID string, _ error) error {
	return l.settle(claimID, claimStatusFailed)
}

// Len reports how many keys the ledger tracks.
func (l *MemoryDeliveryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryDeliveryLedger) settle(claimID string, status claimStatus) error {
	if l == nil {
		return fmt.Errorf("webhooks: delivery ledger is nil")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return fmt.Errorf("webhooks: claim id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key, ok := l.claims[claimID]
	if !ok {
		return nil
	}
	delete(l.claims, claimID)
	entry, exists := l.entries[key]
	if !exists || entry.ClaimID != claimID || entry.Status != claimStatusProcessing {
		return nil
	}
	entry.Status = status
	entry.ClaimID = ""
	if status == claimStatusComplete {
		ttl := l.KeyTTL
		if ttl <= 0 {
			ttl = defaultKeyTTL
		}
		entry.ExpiresAt = l.now().Add(ttl)
	} else {
		entry.ExpiresAt = time.Time{}
	}
	l.entries[key] = entry
	return nil
}

func (l *MemoryDeliveryLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *MemoryDeliveryLedger) evictExpiredLocked(now time.Time) {
	for key, entry := range l.entries {
		if entry.Status == claimStatusComplete && !now.Before(entry.ExpiresAt) {
			delete(l.entries, key)
		}
	}
}

var _ DeliveryLedger = (*MemoryDeliveryLedger)(nil)
