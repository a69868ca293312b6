// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

// sleeperCommand returns a command that stays alive long enough for the
// test to kill it.
func sleeperCommand(t *testing.T) *exec.Cmd {
	t.Helper()
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", "ping", "-n", "60", "127.0.0.1")
	}
	return exec.Command("sleep", "60")
}

func newTestRegistry() *Registry {
	return &Registry{entries: map[int]Entry{}}
}

func TestRegisterUnregisterAccounting(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	before := r.ActiveCount()
	id := r.Register(ctx, 12345, "")
	if id == "" {
		t.Fatal("Register must generate a correlation id when none is given")
	}
	if got := r.ActiveCount(); got != before+1 {
		t.Fatalf("ActiveCount = %d, want %d", got, before+1)
	}
	r.Unregister(ctx, 12345)
	if got := r.ActiveCount(); got != before {
		t.Fatalf("ActiveCount after unregister = %d, want %d", got, before)
	}
	// Unregistering an absent pid is a no-op.
	r.Unregister(ctx, 12345)
	if got := r.ActiveCount(); got != before {
		t.Fatalf("ActiveCount after double unregister = %d, want %d", got, before)
	}
}

func TestRegisterKeepsSuppliedCorrelationID(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	got := r.Register(ctx, 999, "run-42")
	if got != "run-42" {
		t.Fatalf("Register returned %q, want the supplied id", got)
	}
	entries := r.Entries()
	if len(entries) != 1 || entries[0].CorrelationID != "run-42" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestKillAllTerminatesChildren(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	var pids []int
	for i := 0; i < 3; i++ {
		cmd := sleeperCommand(t)
		if err := cmd.Start(); err != nil {
			t.Fatalf("starting sleeper: %v", err)
		}
		pid := cmd.Process.Pid
		pids = append(pids, pid)
		r.Register(ctx, pid, "")
		// Reap the child when it dies so it does not linger as a zombie
		// and keep IsAlive reporting true.
		go cmd.Wait()
	}
	if got := r.ActiveCount(); got != 3 {
		t.Fatalf("ActiveCount = %d, want 3", got)
	}

	r.KillAll(ctx)
	if got := r.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount after KillAll = %d, want 0", got)
	}

	deadline := time.Now().Add(250 * time.Millisecond)
	for _, pid := range pids {
		for IsAlive(pid) {
			if time.Now().After(deadline) {
				t.Fatalf("pid %d still alive 250ms after KillAll", pid)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	// Double invocation at shutdown must be safe.
	r.KillAll(ctx)
}

func TestSpawnTracksAndUnregistersOnExit(t *testing.T) {
	ctx := context.Background()
	registry := Shared()
	before := registry.ActiveCount()

	path, args := "sleep", []string{"0.2"}
	if runtime.GOOS == "windows" {
		path, args = "cmd", []string{"/C", "exit", "0"}
	}
	child, err := Spawn(ctx, SpawnSpec{Path: path, Args: args, CorrelationID: "spawn-test"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if child.CorrelationID != "spawn-test" {
		t.Errorf("CorrelationID = %q", child.CorrelationID)
	}
	if registry.ActiveCount() != before+1 {
		t.Errorf("ActiveCount while running = %d, want %d", registry.ActiveCount(), before+1)
	}
	if err := child.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// The exit watcher unregisters the child before Wait returns.
	deadline := time.Now().Add(time.Second)
	for registry.ActiveCount() != before {
		if time.Now().After(deadline) {
			t.Fatalf("child never unregistered, ActiveCount = %d", registry.ActiveCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
