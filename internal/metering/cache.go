// Package metering caches guest performance data fetched from the z/VM
// Cloud Connector and serves inspection requests from that cache.
package metering

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Kind selects one class of metering data.
type Kind string

// Supported metering kinds.
const (
	KindCPUMem Kind = "cpumem"
	KindVNICs  Kind = "vnics"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindCPUMem, KindVNICs}

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("metering: unknown cache kind")

type bucket struct {
	expiration time.Time
	data       map[string]any
}

// Cache holds per-kind guest data that expires as a whole, interval after the
// last Refresh. A fresh Cache starts expired. Guest keys are upper-cased.
type Cache struct {
	mu       sync.Mutex
	interval time.Duration
	buckets  map[Kind]*bucket
	nowFunc  func() time.Time
}

// NewCache returns an empty cache whose refreshed data lives for interval.
func NewCache(interval time.Duration) *Cache {
	c := &Cache{
		interval: interval,
		buckets:  make(map[Kind]*bucket, len(Kinds)),
		nowFunc:  time.Now,
	}
	c.resetLocked()

	return c
}

// Get returns the cached entry for userID, or false when the kind's data has
// expired or holds no entry for that guest.
func (c *Cache) Get(kind Kind, userID string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[kind]
	if !ok || c.nowFunc().After(b.expiration) {
		return nil, false
	}

	v, ok := b.data[guestKey(userID)]

	return v, ok
}

// Set stores one guest entry without touching the expiration.
func (c *Cache) Set(kind Kind, userID string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.bucketLocked(kind)
	if err != nil {
		return err
	}

	b.data[guestKey(userID)] = value

	return nil
}

// Delete drops one guest entry. Deleting an absent entry is a no-op.
func (c *Cache) Delete(kind Kind, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.bucketLocked(kind)
	if err != nil {
		return err
	}

	delete(b.data, guestKey(userID))

	return nil
}

// Clear empties the data of one kind, keeping its expiration.
func (c *Cache) Clear(kind Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.bucketLocked(kind)
	if err != nil {
		return err
	}

	b.data = make(map[string]any)

	return nil
}

// ClearAll empties and expires every kind.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
}

// Refresh replaces the data of kind with data and restarts its lifetime.
func (c *Cache) Refresh(kind Kind, data map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.bucketLocked(kind)
	if err != nil {
		return err
	}

	b.data = make(map[string]any, len(data))
	for userID, v := range data {
		b.data[guestKey(userID)] = v
	}

	b.expiration = c.nowFunc().Add(c.interval)

	return nil
}

func (c *Cache) bucketLocked(kind Kind) (*bucket, error) {
	b, ok := c.buckets[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return b, nil
}

func (c *Cache) resetLocked() {
	now := c.nowFunc()
	for _, k := range Kinds {
		c.buckets[k] = &bucket{expiration: now, data: make(map[string]any)}
	}
}

func guestKey(userID string) string {
	return strings.ToUpper(userID)
}
