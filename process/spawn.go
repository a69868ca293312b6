// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
)

// Environment variables every spawned child inherits: the correlation id
// that ties its logs back to the automation run, and the directory it
// should treat as its working root.
const (
	EnvCorrelationID = "TERMINATOR_EXECUTION_ID"
	EnvWorkingDir    = "TERMINATOR_WORKING_DIR"
)

// SpawnSpec describes a child to launch.
type SpawnSpec struct {
	Path string
	Args []string
	// Dir is the child's working directory and the value of
	// EnvWorkingDir; empty means inherit the parent's.
	Dir string
	// CorrelationID ties the child's logs to an automation run; one is
	// generated when empty.
	CorrelationID string
	// Env is appended to the parent environment after the convention
	// variables.
	Env []string

	Stdout, Stderr *os.File
}

// Child is a spawned, registry-tracked process.
type Child struct {
	PID           int
	CorrelationID string

	cmd      *exec.Cmd
	registry *Registry
	done     chan struct{}
	waitErr  error
}

// Spawn launches the child, registers it (joining the job object where
// one exists), and unregisters it automatically when it exits.
func Spawn(ctx context.Context, spec SpawnSpec) (*Child, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir

	dir := spec.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = wd
		}
	}
	correlationID := spec.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	env := append(os.Environ(),
		fmt.Sprintf("%s=%s", EnvCorrelationID, correlationID),
		fmt.Sprintf("%s=%s", EnvWorkingDir, dir),
	)
	cmd.Env = append(env, spec.Env...)
	if spec.Stdout != nil {
		cmd.Stdout = spec.Stdout
	}
	if spec.Stderr != nil {
		cmd.Stderr = spec.Stderr
	}

	registry := Shared()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning %s: %w", spec.Path, err)
	}
	pid := cmd.Process.Pid
	registry.Register(ctx, pid, correlationID)
	child := &Child{
		PID:           pid,
		CorrelationID: correlationID,
		cmd:           cmd,
		registry:      registry,
		done:          make(chan struct{}),
	}

	go func() {
		child.waitErr = cmd.Wait()
		registry.Unregister(ctx, pid)
		logging.FromContext(ctx).Debug("child exited", "pid", pid, "correlation_id", correlationID, "error", child.waitErr)
		close(child.done)
	}()
	return child, nil
}

// Wait blocks until the child exits and returns its exit error.
func (c *Child) Wait() error {
	<-c.done
	return c.waitErr
}

// Kill terminates the child and removes it from the registry.
func (c *Child) Kill(ctx context.Context) error {
	err := terminate(c.PID)
	c.registry.Unregister(ctx, c.PID)
	return err
}
