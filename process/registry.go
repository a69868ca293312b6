// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
)

// Entry records one tracked child process.
type Entry struct {
	PID           int
	CorrelationID string
	StartedAt     time.Time
}

// Registry is the process-wide child tracker. A pid is present exactly
// while the automation believes the child is alive; KillAll drains the
// map and terminates everything it held.
type Registry struct {
	mu      sync.RWMutex
	entries map[int]Entry
}

var registryOnce = sync.OnceValue(func() *Registry {
	return &Registry{entries: map[int]Entry{}}
})

// Shared returns the lazily initialised process-wide registry and makes
// sure the job object exists so registered children join it.
func Shared() *Registry {
	initJobObject()
	return registryOnce()
}

// Register inserts pid, generating a correlation id when the caller does
// not supply one, and attempts to assign the pid to the job object.
// It returns the correlation id in effect.
func (r *Registry) Register(ctx context.Context, pid int, correlationID string) string {
	log := logging.FromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	assigned := assignToJobObject(pid)
	log.Debug("child registered",
		"pid", pid, "correlation_id", correlationID, "job_assigned", assigned)

	r.mu.Lock()
	r.entries[pid] = Entry{PID: pid, CorrelationID: correlationID, StartedAt: time.Now()}
	count := len(r.entries)
	r.mu.Unlock()

	log.Info("child process tracked", "pid", pid, "active", count)
	return correlationID
}

// Unregister removes pid; absent pids are a no-op.
func (r *Registry) Unregister(ctx context.Context, pid int) {
	r.mu.Lock()
	_, present := r.entries[pid]
	delete(r.entries, pid)
	count := len(r.entries)
	r.mu.Unlock()

	if present {
		logging.FromContext(ctx).Debug("child unregistered", "pid", pid, "active", count)
	}
}

// ActiveCount is the number of tracked children.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a snapshot of the tracked children.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// KillAll drains the registry under the write lock, then terminates each
// drained pid outside it so the lock hold stays short. Safe to call
// more than once; the second call finds an empty map and does nothing.
func (r *Registry) KillAll(ctx context.Context) {
	log := logging.FromContext(ctx)

	r.mu.Lock()
	drained := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		drained = append(drained, e)
	}
	r.entries = map[int]Entry{}
	r.mu.Unlock()

	for _, e := range drained {
		if err := terminate(e.PID); err != nil {
			log.Info("child kill failed", "pid", e.PID, "correlation_id", e.CorrelationID, "error", err)
			continue
		}
		log.Info("child killed", "pid", e.PID, "correlation_id", e.CorrelationID)
	}
}

// IsAlive reports whether pid still names a running process.
func IsAlive(pid int) bool { return isAlive(pid) }
