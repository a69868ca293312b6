// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
)

// ContainerSpawner launches workflow executors inside containers instead
// of bare child processes, for runs that need stronger isolation than
// job-object containment gives. Containers are tracked by correlation id
// and torn down together on StopAll, mirroring the registry's KillAll
// contract.
type ContainerSpawner struct {
	client *client.Client
	image  string

	mu     sync.Mutex
	active map[string]string // correlation id -> container id
}

// ContainerSpawnerOption configures a ContainerSpawner.
type ContainerSpawnerOption func(*ContainerSpawner)

// WithClient sets a custom Docker client.
func WithClient(c *client.Client) ContainerSpawnerOption {
	return func(s *ContainerSpawner) { s.client = c }
}

// WithImage sets the image executors run in.
func WithImage(img string) ContainerSpawnerOption {
	return func(s *ContainerSpawner) { s.image = img }
}

// NewContainerSpawner builds a spawner, connecting to the local Docker
// daemon when no client is supplied, and verifies the daemon is
// reachable.
func NewContainerSpawner(ctx context.Context, opts ...ContainerSpawnerOption) (*ContainerSpawner, error) {
	s := &ContainerSpawner{active: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.image == "" {
		return nil, fmt.Errorf("container spawner needs an image")
	}
	if s.client == nil {
		c, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, fmt.Errorf("creating docker client: %w", err)
		}
		s.client = c
	}
	if _, err := s.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return s, nil
}

// ensureImage pulls the image unless it is already present locally.
func (s *ContainerSpawner) ensureImage(ctx context.Context) error {
	images, err := s.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == s.image || strings.HasPrefix(tag, s.image+":") {
				return nil
			}
		}
	}
	reader, err := s.client.ImagePull(ctx, s.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", s.image, err)
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}

// Spawn creates and starts one executor container, passing the same
// correlation-id and working-directory environment conventions direct
// children get. It returns the correlation id.
func (s *ContainerSpawner) Spawn(ctx context.Context, cmd []string, workDir string, correlationID string) (string, error) {
	log := logging.FromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if err := s.ensureImage(ctx); err != nil {
		return "", err
	}

	resp, err := s.client.ContainerCreate(ctx,
		&container.Config{
			Image:      s.image,
			Cmd:        cmd,
			WorkingDir: workDir,
			Env: []string{
				fmt.Sprintf("%s=%s", EnvCorrelationID, correlationID),
				fmt.Sprintf("%s=%s", EnvWorkingDir, workDir),
			},
			Labels: map[string]string{"terminator.correlation_id": correlationID},
		},
		&container.HostConfig{AutoRemove: true},
		nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		s.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("starting container: %w", err)
	}

	s.mu.Lock()
	s.active[correlationID] = resp.ID
	count := len(s.active)
	s.mu.Unlock()

	log.Info("executor container started", "container_id", resp.ID, "correlation_id", correlationID, "active", count)
	return correlationID, nil
}

// Stop tears down the container for one correlation id.
func (s *ContainerSpawner) Stop(ctx context.Context, correlationID string) error {
	s.mu.Lock()
	id, ok := s.active[correlationID]
	delete(s.active, correlationID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

// StopAll drains the tracked set, then removes each container outside
// the lock. Idempotent, like the registry's KillAll.
func (s *ContainerSpawner) StopAll(ctx context.Context) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	drained := s.active
	s.active = map[string]string{}
	s.mu.Unlock()

	for correlationID, id := range drained {
		if err := s.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
			log.Info("container removal failed", "container_id", id, "correlation_id", correlationID, "error", err)
			continue
		}
		log.Info("container removed", "container_id", id, "correlation_id", correlationID)
	}
}

// ActiveCount is the number of tracked containers.
func (s *ContainerSpawner) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Close releases the Docker client.
func (s *ContainerSpawner) Close() error {
	return s.client.Close()
}
