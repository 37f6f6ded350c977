// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package evidence

import (
	"sync"

	"github.com/google/uuid"
)

// Buffer is a collector-local evidence accumulator.
//
// Detective tasks run in parallel and share no mutable state; each one owns
// a Buffer and hands it to Ledger.Merge only after the fan-in barrier. The
// zero value is not usable; create buffers with NewBuffer.
type Buffer struct {
	collector string
	items     []Evidence
}

// NewBuffer creates a buffer owned by the named collector.
func NewBuffer(collector string) *Buffer {
	return &Buffer{collector: collector}
}

// Collector returns the owning collector name.
func (b *Buffer) Collector() string { return b.collector }

// Add appends an evidence item to the buffer.
func (b *Buffer) Add(ev Evidence) {
	b.items = append(b.items, ev)
}

// Len returns the number of buffered items.
func (b *Buffer) Len() int { return len(b.items) }

// Ledger is the append-only, per-collector findings store consumed by the
// judges and the deliberation engine.
//
// The ledger grows monotonically within a run: items are appended under a
// collector key and never mutated or removed. Readers receive copies so
// downstream code cannot alter recorded findings.
type Ledger struct {
	runID string

	mu    sync.RWMutex
	items map[string][]Evidence
	order []string
}

// NewLedger creates an empty ledger with a fresh run identifier.
func NewLedger() *Ledger {
	return &Ledger{
		runID: uuid.NewString(),
		items: make(map[string][]Evidence),
	}
}

// RunID returns the unique identifier of this audit run.
func (l *Ledger) RunID() string { return l.runID }

// Append records evidence under the given collector key.
func (l *Ledger) Append(collector string, evs ...Evidence) {
	if len(evs) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[collector]; !ok {
		l.order = append(l.order, collector)
	}
	l.items[collector] = append(l.items[collector], evs...)
}

// Merge appends every item from a collector-local buffer.
//
// Called once per detective at the synchronization barrier.
func (l *Ledger) Merge(buf *Buffer) {
	if buf == nil {
		return
	}
	l.Append(buf.collector, buf.items...)
}

// ByCollector returns a copy of the evidence recorded by one collector.
func (l *Ledger) ByCollector(collector string) []Evidence {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.items[collector]
	out := make([]Evidence, len(src))
	copy(out, src)
	return out
}

// Collectors returns collector names in first-append order.
func (l *Ledger) Collectors() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Len returns the total number of evidence items across all collectors.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, evs := range l.items {
		total += len(evs)
	}
	return total
}

// Locations returns every distinct evidence location in collector append
// order. Judges cite this full set to preserve traceability.
func (l *Ledger) Locations() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, collector := range l.order {
		for _, ev := range l.items[collector] {
			if ev.Location == "" || seen[ev.Location] {
				continue
			}
			seen[ev.Location] = true
			out = append(out, ev.Location)
		}
	}
	return out
}
