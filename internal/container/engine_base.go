// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container
	// engines. Docker and Podman engines embed this struct. Methods that are
	// identical across all CLI engines (argument construction, Pull, Build,
	// StartDetached, Exec, Commit, Remove, RemoveImage, ListImages) are
	// implemented here; engine-specific methods (Available, Version,
	// ImageExists) remain on the concrete types.
	BaseCLIEngine struct {
		name        string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath  string // Resolved at construction via exec.LookPath
		execCommand ExecCommandFunc
	}
)

// NewBaseCLIEngine creates a base engine wrapping the given CLI binary.
func NewBaseCLIEngine(name, binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		name:        name,
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithExecCommand overrides how commands are created (for testing).
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// BinaryPath returns the resolved CLI binary path, empty if not found.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// CreateCommand builds an exec.Cmd for the engine CLI with the given arguments.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// RunCommandWithOutput runs an engine CLI command and returns combined stdout.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	out, err := e.CreateCommand(ctx, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RunCommandStatus runs an engine CLI command and returns its error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	return e.CreateCommand(ctx, args...).Run()
}

// PullArgs builds the argument slice for 'pull'.
func (e *BaseCLIEngine) PullArgs(image ImageTag) []string {
	return []string{"pull", string(image)}
}

// BuildArgs builds the argument slice for 'build'.
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Containerfile != "" {
		args = append(args, "-f", opts.Containerfile)
	}
	if opts.Tag != "" {
		args = append(args, "-t", string(opts.Tag))
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	for _, k := range sortedKeys(opts.BuildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildArgs[k]))
	}

	args = append(args, opts.ContextDir)
	return args
}

// StartArgs builds the argument slice for a detached 'run'.
func (e *BaseCLIEngine) StartArgs(opts StartOptions) []string {
	args := []string{"run", "--detach"}

	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	for _, k := range sortedKeys(opts.Env) {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	args = append(args, string(opts.Image))
	args = append(args, opts.Command...)
	return args
}

// ExecArgs builds the argument slice for 'exec'.
func (e *BaseCLIEngine) ExecArgs(containerID ContainerID, opts ExecOptions) []string {
	args := []string{"exec"}

	for _, k := range sortedKeys(opts.Env) {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	args = append(args, string(containerID))
	args = append(args, opts.Command...)
	return args
}

// CommitArgs builds the argument slice for 'commit'.
func (e *BaseCLIEngine) CommitArgs(containerID ContainerID, tag ImageTag, changes []string) []string {
	args := []string{"commit"}
	for _, change := range changes {
		args = append(args, "--change", change)
	}
	args = append(args, string(containerID), string(tag))
	return args
}

// RemoveArgs builds the argument slice for 'rm'.
func (e *BaseCLIEngine) RemoveArgs(containerID ContainerID, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, string(containerID))
	return args
}

// RemoveImageArgs builds the argument slice for 'rmi'.
func (e *BaseCLIEngine) RemoveImageArgs(image ImageTag, force bool) []string {
	args := []string{"rmi"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, string(image))
	return args
}

// ListImagesArgs builds the argument slice for 'images' with a reference filter.
func (e *BaseCLIEngine) ListImagesArgs(reference string) []string {
	args := []string{"images", "--format", "{{.Repository}}:{{.Tag}}"}
	if reference != "" {
		args = append(args, "--filter", "reference="+reference)
	}
	return args
}

// Pull fetches an image, streaming progress to output.
func (e *BaseCLIEngine) Pull(ctx context.Context, image ImageTag, output io.Writer) error {
	cmd := e.CreateCommand(ctx, e.PullArgs(image)...)
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s pull %s: %w", e.name, image, err)
	}
	return nil
}

// Build builds an image from a Containerfile.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	cmd := e.CreateCommand(ctx, e.BuildArgs(opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s build of %s failed: %w", e.name, opts.Tag, err)
	}
	return nil
}

// StartDetached starts a detached container and returns its ID.
func (e *BaseCLIEngine) StartDetached(ctx context.Context, opts StartOptions) (ContainerID, error) {
	out, err := e.RunCommandWithOutput(ctx, e.StartArgs(opts)...)
	if err != nil {
		return "", fmt.Errorf("%s run %s: %w", e.name, opts.Image, err)
	}

	id := strings.TrimSpace(out)
	if id == "" {
		return "", fmt.Errorf("%s run %s: no container ID reported", e.name, opts.Image)
	}
	return ContainerID(id), nil
}

// Exec runs a command in a running container. A non-zero command exit
// status is reported as *ExitCodeError so callers can distinguish it from
// engine-level failures.
func (e *BaseCLIEngine) Exec(ctx context.Context, containerID ContainerID, opts ExecOptions) error {
	cmd := e.CreateCommand(ctx, e.ExecArgs(containerID, opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitCodeError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%s exec in %s: %w", e.name, containerID, err)
	}
	return nil
}

// Commit snapshots the container into a new image tag.
func (e *BaseCLIEngine) Commit(ctx context.Context, containerID ContainerID, tag ImageTag, changes []string) error {
	if err := e.RunCommandStatus(ctx, e.CommitArgs(containerID, tag, changes)...); err != nil {
		return fmt.Errorf("%s commit %s as %s: %w", e.name, containerID, tag, err)
	}
	return nil
}

// Remove removes a container.
func (e *BaseCLIEngine) Remove(ctx context.Context, containerID ContainerID, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveArgs(containerID, force)...)
}

// RemoveImage removes an image.
func (e *BaseCLIEngine) RemoveImage(ctx context.Context, image ImageTag, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveImageArgs(image, force)...)
}

// ListImages lists local image tags matching the reference filter.
func (e *BaseCLIEngine) ListImages(ctx context.Context, reference string) ([]ImageTag, error) {
	out, err := e.RunCommandWithOutput(ctx, e.ListImagesArgs(reference)...)
	if err != nil {
		return nil, fmt.Errorf("%s images: %w", e.name, err)
	}

	var tags []ImageTag
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		// Dangling images render as "<none>:<none>"
		if line == "" || strings.HasPrefix(line, "<none>") {
			continue
		}
		tags = append(tags, ImageTag(line))
	}
	return tags, nil
}

// sortedKeys returns map keys in deterministic order so generated CLI
// invocations are stable across runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
