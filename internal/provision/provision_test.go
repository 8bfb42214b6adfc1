// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/platform"
)

type (
	// execResult scripts the outcome of one Exec call.
	execResult struct {
		output string
		err    error
	}

	// mockEngine records calls in order and plays back scripted results.
	mockEngine struct {
		calls []string

		imageExists    bool
		imageExistsErr error
		pullErr        error
		startErr       error
		execResults    []execResult
		execIdx        int
		commitErr      error
		buildResults   []execResult
		buildIdx       int
		images         []container.ImageTag
		removeImageErr error
	}
)

var _ container.Engine = (*mockEngine)(nil)

func (m *mockEngine) Name() string    { return "mock" }
func (m *mockEngine) Available() bool { return true }

func (m *mockEngine) Version(context.Context) (string, error) { return "0.0-test", nil }

func (m *mockEngine) Pull(_ context.Context, image container.ImageTag, output io.Writer) error {
	m.calls = append(m.calls, "pull "+string(image))
	if m.pullErr != nil {
		return m.pullErr
	}
	fmt.Fprintf(output, "pulled %s\n", image)
	return nil
}

func (m *mockEngine) ImageExists(_ context.Context, image container.ImageTag) (bool, error) {
	m.calls = append(m.calls, "image-exists "+string(image))
	return m.imageExists, m.imageExistsErr
}

func (m *mockEngine) Build(_ context.Context, opts container.BuildOptions) error {
	m.calls = append(m.calls, "build "+string(opts.Tag))
	if m.buildIdx >= len(m.buildResults) {
		return nil
	}
	res := m.buildResults[m.buildIdx]
	m.buildIdx++
	if opts.Stdout != nil {
		io.WriteString(opts.Stdout, res.output)
	}
	return res.err
}

func (m *mockEngine) StartDetached(_ context.Context, opts container.StartOptions) (container.ContainerID, error) {
	m.calls = append(m.calls, "start "+string(opts.Image)+" "+strings.Join(opts.Command, " "))
	if m.startErr != nil {
		return "", m.startErr
	}
	return "scratch-1", nil
}

func (m *mockEngine) Exec(_ context.Context, id container.ContainerID, opts container.ExecOptions) error {
	m.calls = append(m.calls, "exec "+string(id)+" "+strings.Join(opts.Command, " "))
	if m.execIdx >= len(m.execResults) {
		return nil
	}
	res := m.execResults[m.execIdx]
	m.execIdx++
	if opts.Stdout != nil {
		io.WriteString(opts.Stdout, res.output)
	}
	return res.err
}

func (m *mockEngine) Commit(_ context.Context, id container.ContainerID, tag container.ImageTag, _ []string) error {
	m.calls = append(m.calls, "commit "+string(id)+" "+string(tag))
	return m.commitErr
}

func (m *mockEngine) Remove(_ context.Context, id container.ContainerID, force bool) error {
	m.calls = append(m.calls, fmt.Sprintf("remove %s force=%t", id, force))
	return nil
}

func (m *mockEngine) RemoveImage(_ context.Context, image container.ImageTag, _ bool) error {
	m.calls = append(m.calls, "remove-image "+string(image))
	return m.removeImageErr
}

func (m *mockEngine) ListImages(_ context.Context, reference string) ([]container.ImageTag, error) {
	m.calls = append(m.calls, "list-images "+reference)
	return m.images, nil
}

// callsMatching returns the recorded calls whose first word is verb.
func (m *mockEngine) callsMatching(verb string) []string {
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, verb+" ") {
			out = append(out, c)
		}
	}
	return out
}

func testConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	cfg.Logger = log.New(io.Discard)
	cfg.Apply(opts...)
	return cfg
}

func testDescriptor() *platform.PlatformDescriptor {
	return &platform.PlatformDescriptor{
		Name:         "amd64",
		BaseImage:    "ubuntu:jammy",
		TargetTriple: "x86_64-linux-gnu",
		Packages: []platform.PackageName{
			"g++-x86-64-linux-gnu",
			"libc6-dev-amd64-cross",
			"libssl-dev",
		},
		NonInteractive: true,
	}
}

func TestCacheTag_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	desc := testDescriptor()

	first := CacheTag(cfg, desc)
	second := CacheTag(cfg, desc)
	if first != second {
		t.Fatalf("same descriptor produced different tags: %q vs %q", first, second)
	}
	if !strings.HasPrefix(string(first), "crossforge/x86_64-linux-gnu:") {
		t.Errorf("unexpected tag shape %q", first)
	}
}

func TestCacheTag_OrderSensitive(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	a := testDescriptor()
	b := testDescriptor()
	b.Packages[0], b.Packages[1] = b.Packages[1], b.Packages[0]

	if CacheTag(cfg, a) == CacheTag(cfg, b) {
		t.Fatal("reordered package list should produce a different tag")
	}
}

func TestCacheTag_Suffix(t *testing.T) {
	t.Parallel()

	cfg := testConfig(WithTagSuffix("t42"))
	tag := string(CacheTag(cfg, testDescriptor()))
	if !strings.HasSuffix(tag, "-t42") {
		t.Errorf("expected suffix on tag, got %q", tag)
	}
}

func TestInstallCommand_AtomicAndOrdered(t *testing.T) {
	t.Parallel()

	cmd := installCommand(testDescriptor())
	want := []string{
		"apt-get", "install", "--yes", "--no-install-recommends",
		"g++-x86-64-linux-gnu", "libc6-dev-amd64-cross", "libssl-dev",
	}
	if len(cmd) != len(want) {
		t.Fatalf("unexpected command %v", cmd)
	}
	for i := range want {
		if cmd[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, cmd[i], want[i])
		}
	}
}

func TestAptEnv(t *testing.T) {
	t.Parallel()

	desc := testDescriptor()
	if env := aptEnv(desc); env["DEBIAN_FRONTEND"] != "noninteractive" {
		t.Errorf("expected noninteractive frontend, got %v", env)
	}

	desc.NonInteractive = false
	if env := aptEnv(desc); env != nil {
		t.Errorf("expected nil env for interactive descriptor, got %v", env)
	}
}

func TestFirstFailedPackage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   platform.PackageName
	}{
		{
			"unable to locate",
			"Reading package lists...\nE: Unable to locate package libfoo-dev\n",
			"libfoo-dev",
		},
		{
			"no candidate",
			"E: Package 'g++-mips-linux-gnu' has no installation candidate\n",
			"g++-mips-linux-gnu",
		},
		{
			"dependency conflict names nothing",
			"E: Unmet dependencies. Try 'apt --fix-broken install'.\n",
			"",
		},
		{"clean output", "Setting up libssl-dev ...\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := firstFailedPackage(tt.output); got != tt.want {
				t.Errorf("firstFailedPackage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderContainerfile(t *testing.T) {
	t.Parallel()

	out, err := RenderContainerfile(testDescriptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "FROM ubuntu:jammy\n") {
		t.Errorf("missing FROM line:\n%s", out)
	}
	if !strings.Contains(out, "ENV DEBIAN_FRONTEND=noninteractive") {
		t.Errorf("missing frontend env:\n%s", out)
	}
	if strings.Count(out, "RUN ") != 1 {
		t.Errorf("expected exactly one RUN layer:\n%s", out)
	}
	if !strings.Contains(out, "apt-get update && ") {
		t.Errorf("refresh must precede install in the RUN layer:\n%s", out)
	}
	if !strings.Contains(out, "apt-get install --yes --no-install-recommends g++-x86-64-linux-gnu libc6-dev-amd64-cross libssl-dev") {
		t.Errorf("install command not rendered atomically:\n%s", out)
	}
	if !strings.Contains(out, "rm -rf /var/lib/apt/lists/*") {
		t.Errorf("missing apt list cleanup:\n%s", out)
	}
}

func TestRenderContainerfile_InteractiveOmitsEnv(t *testing.T) {
	t.Parallel()

	desc := testDescriptor()
	desc.NonInteractive = false

	out, err := RenderContainerfile(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "DEBIAN_FRONTEND") {
		t.Errorf("interactive descriptor must not set the frontend:\n%s", out)
	}
}

func newStepProvisioner(engine container.Engine, cfg *Config) *StepProvisioner {
	p := NewStepProvisioner(engine, cfg)
	p.refreshBackoff = 0
	return p
}

func TestStepProvisioner_Success(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		execResults: []execResult{
			{output: "Get:1 http://archive.ubuntu.com jammy InRelease\n"},
			{output: "Setting up libssl-dev\n"},
		},
	}
	p := newStepProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Cached {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ImageTag == "" {
		t.Fatal("expected an image tag")
	}
	if !strings.Contains(res.Logs, "InRelease") || !strings.Contains(res.Logs, "Setting up") {
		t.Errorf("step output not captured in logs: %q", res.Logs)
	}

	// The step order is fixed: cache check, pull, start, refresh, install,
	// commit, then scratch container removal.
	wantOrder := []string{"image-exists", "pull", "start", "exec", "exec", "commit", "remove"}
	if len(engine.calls) != len(wantOrder) {
		t.Fatalf("unexpected calls %v", engine.calls)
	}
	for i, verb := range wantOrder {
		if !strings.HasPrefix(engine.calls[i], verb+" ") && engine.calls[i] != verb {
			t.Errorf("call %d = %q, want verb %q", i, engine.calls[i], verb)
		}
	}

	execs := engine.callsMatching("exec")
	if !strings.Contains(execs[0], "apt-get update") {
		t.Errorf("first exec should refresh the index: %q", execs[0])
	}
	if !strings.Contains(execs[1], "apt-get install") {
		t.Errorf("second exec should install: %q", execs[1])
	}
}

func TestStepProvisioner_CacheHitSkipsAllWork(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{imageExists: true}
	p := newStepProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cached || !res.Success {
		t.Fatalf("expected cached success, got %+v", res)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("cached run must perform no engine work beyond the lookup: %v", engine.calls)
	}
}

func TestStepProvisioner_ForceRebuildBypassesCache(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{imageExists: true}
	p := newStepProvisioner(engine, testConfig(WithForceRebuild(true)))

	if _, err := p.Provision(context.Background(), testDescriptor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engine.callsMatching("image-exists")) != 0 {
		t.Errorf("force rebuild should not consult the cache: %v", engine.calls)
	}
	if len(engine.callsMatching("commit")) != 1 {
		t.Errorf("force rebuild should commit a fresh image: %v", engine.calls)
	}
}

func TestStepProvisioner_BaseImageUnavailable(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{pullErr: errors.New("manifest unknown")}
	p := newStepProvisioner(engine, testConfig())

	_, err := p.Provision(context.Background(), testDescriptor())
	if !errors.Is(err, ErrBaseImageUnavailable) {
		t.Fatalf("expected ErrBaseImageUnavailable, got %v", err)
	}

	// No package operation may run once the base image failed.
	if n := len(engine.callsMatching("exec")); n != 0 {
		t.Errorf("expected no exec calls after pull failure, got %d", n)
	}

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected *EnvironmentError, got %T", err)
	}
	if envErr.Image != "ubuntu:jammy" {
		t.Errorf("unexpected image in error: %q", envErr.Image)
	}
}

func TestStepProvisioner_IndexRefreshRetriedExactlyOnce(t *testing.T) {
	t.Parallel()

	// First refresh fails, retry succeeds; the run completes.
	engine := &mockEngine{
		execResults: []execResult{
			{output: "Err:1 http://archive.ubuntu.com\n", err: &container.ExitCodeError{Code: 100}},
			{output: "Get:1 http://archive.ubuntu.com jammy InRelease\n"},
			{output: "Setting up libssl-dev\n"},
		},
	}
	p := newStepProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("expected retry to rescue the run, got %v", err)
	}
	if !res.Success {
		t.Fatalf("unexpected result %+v", res)
	}

	execs := engine.callsMatching("exec")
	if len(execs) != 3 {
		t.Fatalf("expected refresh, refresh retry, install; got %v", execs)
	}
	if !strings.Contains(execs[1], "apt-get update") {
		t.Errorf("second exec should be the refresh retry: %q", execs[1])
	}
}

func TestStepProvisioner_IndexRefreshFailsAfterRetry(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		execResults: []execResult{
			{err: &container.ExitCodeError{Code: 100}},
			{err: &container.ExitCodeError{Code: 100}},
		},
	}
	p := newStepProvisioner(engine, testConfig())

	_, err := p.Provision(context.Background(), testDescriptor())
	if !errors.Is(err, ErrIndexRefreshFailed) {
		t.Fatalf("expected ErrIndexRefreshFailed, got %v", err)
	}

	// Exactly two refresh attempts, no install attempt.
	execs := engine.callsMatching("exec")
	if len(execs) != 2 {
		t.Fatalf("expected exactly 2 exec calls, got %v", execs)
	}
	for _, e := range execs {
		if strings.Contains(e, "apt-get install") {
			t.Errorf("install must never run after a failed refresh: %q", e)
		}
	}
	if len(engine.callsMatching("commit")) != 0 {
		t.Error("failed run must not commit an image")
	}
}

func TestStepProvisioner_PackageInstallFailedNamesPackage(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		execResults: []execResult{
			{output: "Get:1 http://archive.ubuntu.com jammy InRelease\n"},
			{
				output: "E: Unable to locate package libc6-dev-amd64-cross\n",
				err:    &container.ExitCodeError{Code: 100},
			},
		},
	}
	p := newStepProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if !errors.Is(err, ErrPackageInstallFailed) {
		t.Fatalf("expected ErrPackageInstallFailed, got %v", err)
	}

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected *EnvironmentError, got %T", err)
	}
	if envErr.Package != "libc6-dev-amd64-cross" {
		t.Errorf("expected failing package in error, got %q", envErr.Package)
	}
	if res.FailedPackage != "libc6-dev-amd64-cross" {
		t.Errorf("expected failing package in result, got %q", res.FailedPackage)
	}

	// Install is never retried.
	installs := 0
	for _, e := range engine.callsMatching("exec") {
		if strings.Contains(e, "apt-get install") {
			installs++
		}
	}
	if installs != 1 {
		t.Errorf("expected exactly 1 install attempt, got %d", installs)
	}

	// The scratch container is discarded even on failure.
	if len(engine.callsMatching("remove")) != 1 {
		t.Errorf("scratch container not removed: %v", engine.calls)
	}
}

func TestStepProvisioner_TimeoutClassified(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	engine := &mockEngine{
		execResults: []execResult{{err: context.DeadlineExceeded}},
	}
	p := newStepProvisioner(engine, testConfig())

	_, err := p.Provision(ctx, testDescriptor())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestStepProvisioner_CancellationDiscardsEnvironment(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &mockEngine{
		execResults: []execResult{{err: context.Canceled}},
	}
	p := newStepProvisioner(engine, testConfig())

	_, err := p.Provision(ctx, testDescriptor())
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if len(engine.callsMatching("commit")) != 0 {
		t.Error("canceled run must not commit an image")
	}
	if len(engine.callsMatching("remove")) != 1 {
		t.Errorf("canceled run must discard the scratch container: %v", engine.calls)
	}
}

func TestStepProvisioner_InvalidDescriptorRejectedUpFront(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	p := newStepProvisioner(engine, testConfig())

	desc := testDescriptor()
	desc.BaseImage = "ubuntu" // unpinned

	_, err := p.Provision(context.Background(), desc)
	if !errors.Is(err, platform.ErrInvalidDescriptor) {
		t.Fatalf("expected descriptor validation error, got %v", err)
	}
	if len(engine.calls) != 0 {
		t.Errorf("invalid descriptor must not touch the engine: %v", engine.calls)
	}
}

func newBuildProvisioner(engine container.Engine, cfg *Config) *BuildProvisioner {
	p := NewBuildProvisioner(engine, cfg)
	p.refreshBackoff = 0
	return p
}

func TestBuildProvisioner_Success(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		buildResults: []execResult{{output: "Successfully built\n"}},
	}
	p := newBuildProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Cached {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(engine.callsMatching("build")) != 1 {
		t.Fatalf("expected a single build, got %v", engine.calls)
	}
}

func TestBuildProvisioner_CacheHit(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{imageExists: true}
	p := newBuildProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cached {
		t.Fatalf("expected cached result, got %+v", res)
	}
	if len(engine.callsMatching("build")) != 0 {
		t.Errorf("cached run must not build: %v", engine.calls)
	}
}

func TestBuildProvisioner_InstallFailureNamesPackage(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		buildResults: []execResult{{
			output: "Step 3/4 : RUN apt-get update && ...\nE: Unable to locate package libfoo-dev\n",
			err:    errors.New("build failed"),
		}},
	}
	p := newBuildProvisioner(engine, testConfig())

	res, err := p.Provision(context.Background(), testDescriptor())
	if !errors.Is(err, ErrPackageInstallFailed) {
		t.Fatalf("expected ErrPackageInstallFailed, got %v", err)
	}
	if res.FailedPackage != "libfoo-dev" {
		t.Errorf("expected failing package, got %q", res.FailedPackage)
	}
}

func TestBuildProvisioner_RefreshFailureRetriedOnce(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		buildResults: []execResult{
			{
				output: "Err:1 http://archive.ubuntu.com jammy InRelease\nFailed to fetch http://archive.ubuntu.com\n",
				err:    errors.New("build failed"),
			},
			{
				output: "Failed to fetch http://archive.ubuntu.com\n",
				err:    errors.New("build failed"),
			},
		},
	}
	p := newBuildProvisioner(engine, testConfig())

	_, err := p.Provision(context.Background(), testDescriptor())
	if !errors.Is(err, ErrIndexRefreshFailed) {
		t.Fatalf("expected ErrIndexRefreshFailed, got %v", err)
	}
	if n := len(engine.callsMatching("build")); n != 2 {
		t.Fatalf("expected exactly 2 build attempts, got %d", n)
	}
}

func TestClassifyBuildFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		output   string
		wantKind Kind
		wantPkg  platform.PackageName
	}{
		{"missing package", "E: Unable to locate package libfoo\n", KindPackageInstallFailed, "libfoo"},
		{"unmet deps", "E: Unmet dependencies.\n", KindPackageInstallFailed, ""},
		{"fetch failure", "Failed to fetch http://mirror\n", KindIndexRefreshFailed, ""},
		{"pull failure", "manifest for ubuntu:nope not found\n", KindBaseImageUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kind, pkg := classifyBuildFailure(tt.output)
			if kind != tt.wantKind || pkg != tt.wantPkg {
				t.Errorf("classifyBuildFailure() = (%s, %q), want (%s, %q)", kind, pkg, tt.wantKind, tt.wantPkg)
			}
		})
	}
}

func TestListAndRemoveEnvironments(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		images: []container.ImageTag{
			"crossforge/x86_64-linux-gnu:abc123def456",
			"crossforge/aarch64-linux-gnu:0123456789ab",
		},
	}

	tags, err := ListEnvironments(context.Background(), engine, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", tags)
	}
	if engine.calls[0] != "list-images crossforge/*" {
		t.Errorf("unexpected reference filter: %q", engine.calls[0])
	}

	removed, err := RemoveEnvironments(context.Background(), engine, tags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("expected both tags removed, got %v", removed)
	}
}

func TestLogBuffer_Tee(t *testing.T) {
	t.Parallel()

	var tee strings.Builder
	lb := newLogBuffer(&tee)
	fmt.Fprint(lb, "hello")

	if lb.String() != "hello" || tee.String() != "hello" {
		t.Errorf("buffer %q, tee %q", lb.String(), tee.String())
	}
}
