// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strconv"
	"testing"
)

func newTestBase() *BaseCLIEngine {
	return NewBaseCLIEngine("docker", "/usr/bin/docker")
}

// fakeOutput returns an ExecCommandFunc whose commands print the given text
// on stdout and exit zero, regardless of the requested engine invocation.
func fakeOutput(text string) ExecCommandFunc {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "printf '%s' "+shellSingleQuote(text))
	}
}

// fakeFailure returns an ExecCommandFunc whose commands exit with the given code.
func fakeFailure(code int) ExecCommandFunc {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "exit "+strconv.Itoa(code))
	}
}

func shellSingleQuote(s string) string {
	return "'" + s + "'"
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts BuildOptions
		want []string
	}{
		{
			name: "minimal",
			opts: BuildOptions{ContextDir: "/ctx", Tag: "repo:tag"},
			want: []string{"build", "-t", "repo:tag", "/ctx"},
		},
		{
			name: "containerfile and no-cache",
			opts: BuildOptions{
				ContextDir:    "/ctx",
				Containerfile: "Containerfile",
				Tag:           "repo:tag",
				NoCache:       true,
			},
			want: []string{"build", "-f", "Containerfile", "-t", "repo:tag", "--no-cache", "/ctx"},
		},
		{
			name: "build args sorted",
			opts: BuildOptions{
				ContextDir: "/ctx",
				Tag:        "repo:tag",
				BuildArgs:  map[string]string{"ZZZ": "1", "AAA": "2"},
			},
			want: []string{"build", "-t", "repo:tag", "--build-arg", "AAA=2", "--build-arg", "ZZZ=1", "/ctx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := newTestBase().BuildArgs(tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartArgs(t *testing.T) {
	t.Parallel()

	opts := StartOptions{
		Image:   "ubuntu:jammy",
		Command: []string{"sleep", "infinity"},
		Name:    "crossforge-run",
		Env:     map[string]string{"DEBIAN_FRONTEND": "noninteractive"},
	}

	want := []string{
		"run", "--detach",
		"--name", "crossforge-run",
		"--env", "DEBIAN_FRONTEND=noninteractive",
		"ubuntu:jammy",
		"sleep", "infinity",
	}

	got := newTestBase().StartArgs(opts)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StartArgs() = %v, want %v", got, want)
	}
}

func TestExecArgs(t *testing.T) {
	t.Parallel()

	opts := ExecOptions{
		Command: []string{"apt-get", "update"},
		Env:     map[string]string{"DEBIAN_FRONTEND": "noninteractive"},
	}

	want := []string{
		"exec",
		"--env", "DEBIAN_FRONTEND=noninteractive",
		"abc123",
		"apt-get", "update",
	}

	got := newTestBase().ExecArgs("abc123", opts)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExecArgs() = %v, want %v", got, want)
	}
}

func TestCommitArgs(t *testing.T) {
	t.Parallel()

	got := newTestBase().CommitArgs("abc123", "repo:tag", []string{`LABEL a=b`})
	want := []string{"commit", "--change", `LABEL a=b`, "abc123", "repo:tag"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CommitArgs() = %v, want %v", got, want)
	}
}

func TestRemoveArgs(t *testing.T) {
	t.Parallel()

	got := newTestBase().RemoveArgs("abc123", true)
	want := []string{"rm", "--force", "abc123"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemoveArgs() = %v, want %v", got, want)
	}

	got = newTestBase().RemoveImageArgs("repo:tag", false)
	want = []string{"rmi", "repo:tag"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemoveImageArgs() = %v, want %v", got, want)
	}
}

func TestListImagesArgs(t *testing.T) {
	t.Parallel()

	got := newTestBase().ListImagesArgs("crossforge/*")
	want := []string{"images", "--format", "{{.Repository}}:{{.Tag}}", "--filter", "reference=crossforge/*"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListImagesArgs() = %v, want %v", got, want)
	}
}

func TestStartDetached_ReturnsTrimmedID(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(fakeOutput("deadbeef1234\n")))

	id, err := e.StartDetached(context.Background(), StartOptions{Image: "ubuntu:jammy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "deadbeef1234" {
		t.Errorf("expected trimmed container ID, got %q", id)
	}
}

func TestStartDetached_EmptyOutput(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(fakeOutput("")))

	if _, err := e.StartDetached(context.Background(), StartOptions{Image: "ubuntu:jammy"}); err == nil {
		t.Fatal("expected error for empty run output")
	}
}

func TestExec_NonZeroExitIsExitCodeError(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(fakeFailure(3)))

	err := e.Exec(context.Background(), "abc123", ExecOptions{Command: []string{"apt-get", "update"}})
	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitCodeError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.Code)
	}
}

func TestListImages_ParsesAndFiltersNone(t *testing.T) {
	t.Parallel()

	out := "crossforge/x86_64-linux-gnu:a1b2c3\n<none>:<none>\ncrossforge/aarch64-linux-gnu:d4e5f6\n\n"
	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(fakeOutput(out)))

	tags, err := e.ListImages(context.Background(), "crossforge/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ImageTag{"crossforge/x86_64-linux-gnu:a1b2c3", "crossforge/aarch64-linux-gnu:d4e5f6"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("ListImages() = %v, want %v", tags, want)
	}
}
