// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datachannel

import (
	"sync"
)

// DefaultHistory is the number of records a Channel keeps when none is given.
const DefaultHistory = 16

// Channel holds the most recent records of a named data channel.
// It is safe for concurrent use: MQTT callbacks append while HTTP handlers read.
type Channel struct {
	name string

	mu      sync.RWMutex
	records []Record // oldest first
	history int
	nextSeq uint64
	subs    map[chan Record]struct{}
}

// NewChannel creates a channel that keeps at most history records.
// Values below 1 fall back to DefaultHistory.
func NewChannel(name string, history int) *Channel {
	if history < 1 {
		history = DefaultHistory
	}
	return &Channel{
		name:    name,
		history: history,
		subs:    make(map[chan Record]struct{}),
	}
}

// Name returns the channel name (the MQTT topic for subscribed channels).
func (c *Channel) Name() string {
	return c.name
}

// Type returns the structured type of the newest record, or nil if the
// channel is empty or the newest value carried no type.
func (c *Channel) Type() *StructuredType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 || c.records[len(c.records)-1].Type == nil {
		return nil
	}
	st := *c.records[len(c.records)-1].Type
	return &st
}

// Append stores a new record of type st and notifies subscribers. st may be
// nil for untyped values. The oldest record is evicted once the history is
// full.
func (c *Channel) Append(st *StructuredType, value any, timestamp int64) Record {
	if st != nil {
		cp := *st
		st = &cp
	}
	c.mu.Lock()
	c.nextSeq++
	rec := Record{Type: st, Value: value, Timestamp: timestamp, Seq: c.nextSeq}
	if len(c.records) == c.history {
		copy(c.records, c.records[1:])
		c.records[len(c.records)-1] = rec
	} else {
		c.records = append(c.records, rec)
	}

	// Non-blocking fan-out; a slow reader only misses intermediate samples.
	for ch := range c.subs {
		select {
		case ch <- rec:
		default:
		}
	}
	c.mu.Unlock()
	return rec
}

// Records returns a copy of the stored records ordered oldest to newest.
func (c *Channel) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Latest returns the most recent record.
func (c *Channel) Latest() (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 {
		return Record{}, false
	}
	return c.records[len(c.records)-1], true
}

// Subscribe returns a channel receiving every appended record.
// Callers must release it with Unsubscribe.
func (c *Channel) Subscribe() chan Record {
	ch := make(chan Record, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (c *Channel) Unsubscribe(ch chan Record) {
	c.mu.Lock()
	if _, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(ch)
	}
	c.mu.Unlock()
}
