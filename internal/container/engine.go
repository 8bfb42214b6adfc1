// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container runtimes
// (Docker/Podman) used to build and commit provisioned toolchain images.
package container

import (
	"context"
	"fmt"
	"io"
)

type (
	// ImageTag identifies a container image by name and tag or digest
	// (e.g., "ubuntu:jammy", "crossforge/x86_64-linux-gnu:a1b2c3").
	ImageTag string

	// ContainerID identifies a running or stopped container.
	ContainerID string

	// Engine defines the interface for container operations.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is available on the system
		Available() bool
		// Version returns the engine version
		Version(ctx context.Context) (string, error)

		// Pull fetches an image from its registry
		Pull(ctx context.Context, image ImageTag, output io.Writer) error
		// ImageExists checks if an image exists locally
		ImageExists(ctx context.Context, image ImageTag) (bool, error)
		// Build builds an image from a Containerfile
		Build(ctx context.Context, opts BuildOptions) error
		// StartDetached starts a long-lived container and returns its ID
		StartDetached(ctx context.Context, opts StartOptions) (ContainerID, error)
		// Exec runs a command in a running container
		Exec(ctx context.Context, containerID ContainerID, opts ExecOptions) error
		// Commit snapshots a container's filesystem into a new image
		Commit(ctx context.Context, containerID ContainerID, tag ImageTag, changes []string) error
		// Remove removes a container
		Remove(ctx context.Context, containerID ContainerID, force bool) error
		// RemoveImage removes an image
		RemoveImage(ctx context.Context, image ImageTag, force bool) error
		// ListImages lists local image tags matching a repository reference filter
		ListImages(ctx context.Context, reference string) ([]ImageTag, error)
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory
		ContextDir string
		// Containerfile is the path to the Containerfile (relative to ContextDir)
		Containerfile string
		// Tag is the image tag
		Tag ImageTag
		// BuildArgs are build-time variables
		BuildArgs map[string]string
		// NoCache disables the build cache
		NoCache bool
		// Stdout is where to write build output
		Stdout io.Writer
		// Stderr is where to write build errors
		Stderr io.Writer
	}

	// StartOptions contains options for starting a detached container.
	StartOptions struct {
		// Image is the image to run
		Image ImageTag
		// Command is the container's main process; it should block so
		// the container stays alive for subsequent Exec calls
		Command []string
		// Name is an optional container name
		Name string
		// Env contains environment variables
		Env map[string]string
	}

	// ExecOptions contains options for running a command inside a container.
	ExecOptions struct {
		// Command is the command to run
		Command []string
		// Env contains per-exec environment variables
		Env map[string]string
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
	}

	// EngineType identifies the container engine type.
	EngineType string

	// ErrEngineNotAvailable is returned when a container engine is not available.
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}

	// ExitCodeError is returned by Exec when the command exits non-zero.
	ExitCodeError struct {
		Code int
	}
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// Error implements the error interface.
func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// NewEngine creates a new container engine based on preference,
// falling back to the other engine when the preferred one is missing.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
func AutoDetectEngine() (Engine, error) {
	// Docker first: it is the engine most CI runners ship with
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
