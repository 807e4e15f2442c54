// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package membus is the in-memory delivery bus: a mutex-guarded
// registry of per-participant FIFO queues.
package membus

import (
	"sync"

	"github.com/collapse-im/go-collapse"
)

// Bus implements collapse.Bus. It is the one resource shared between
// participants, so every operation holds the lock; a broadcast's
// enqueues never interleave with a drain.
type Bus struct {
	mu     sync.Mutex
	queues map[collapse.Identity][]collapse.Message
}

var _ collapse.Bus = (*Bus)(nil)

func New() *Bus {
	return &Bus{
		queues: make(map[collapse.Identity][]collapse.Message),
	}
}

func (b *Bus) Register(who collapse.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queues[who]; !ok {
		b.queues[who] = nil
	}
}

func (b *Bus) SendTo(to collapse.Identity, msg collapse.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueue(to, msg)
}

// enqueue requires b.mu. Unknown recipients are dropped.
func (b *Bus) enqueue(to collapse.Identity, msg collapse.Message) {
	if _, ok := b.queues[to]; !ok {
		return
	}
	b.queues[to] = append(b.queues[to], msg)
}

func (b *Bus) Broadcast(from collapse.Identity, msg collapse.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for peer := range b.queues {
		if peer == from {
			continue
		}
		b.enqueue(peer, msg)
	}
}

func (b *Bus) Drain(me collapse.Identity) []collapse.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[me]
	if !ok || len(q) == 0 {
		return nil
	}
	drained := make([]collapse.Message, len(q))
	copy(drained, q)
	b.queues[me] = q[:0]
	return drained
}
