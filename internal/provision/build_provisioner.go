// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/platform"
)

// BuildProvisioner provisions by rendering the descriptor as a
// Containerfile and running a single engine build. Cheaper than the step
// strategy, but failure attribution relies on parsing the build output.
type BuildProvisioner struct {
	engine container.Engine
	cfg    *Config

	refreshBackoff time.Duration
}

var _ Provisioner = (*BuildProvisioner)(nil)

// NewBuildProvisioner creates a BuildProvisioner.
func NewBuildProvisioner(engine container.Engine, cfg *Config) *BuildProvisioner {
	return &BuildProvisioner{
		engine:         engine,
		cfg:            cfg,
		refreshBackoff: 2 * time.Second,
	}
}

// Provision implements Provisioner.
func (p *BuildProvisioner) Provision(ctx context.Context, desc *platform.PlatformDescriptor) (*Result, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	tag := CacheTag(p.cfg, desc)
	logger := p.cfg.Logger

	if !p.cfg.ForceRebuild {
		exists, err := p.engine.ImageExists(ctx, tag)
		if err == nil && exists {
			logger.Debug("environment already provisioned", "image", tag)
			return &Result{Success: true, ImageTag: tag, Cached: true}, nil
		}
	}

	containerfile, err := RenderContainerfile(desc)
	if err != nil {
		return nil, err
	}

	ctxDir, err := os.MkdirTemp("", "crossforge-build-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(ctxDir)

	const containerfileName = "Containerfile"
	if err := os.WriteFile(filepath.Join(ctxDir, containerfileName), []byte(containerfile), 0o644); err != nil {
		return nil, err
	}

	var tee io.Writer
	if p.cfg.Verbose {
		tee = os.Stderr
	}
	logs := newLogBuffer(tee)

	opts := container.BuildOptions{
		ContextDir:    ctxDir,
		Containerfile: containerfileName,
		Tag:           tag,
		NoCache:       p.cfg.ForceRebuild,
		Stdout:        logs,
		Stderr:        logs,
	}

	logger.Debug("building environment image", "image", tag)
	attemptStart := 0
	buildErr := p.engine.Build(ctx, opts)
	if buildErr != nil && ctx.Err() == nil {
		// The retry the index refresh step is entitled to, at build
		// granularity: a refresh-classified failure gets the whole build
		// rerun once.
		if kind, _ := classifyBuildFailure(logs.String()); kind == KindIndexRefreshFailed {
			logger.Warn("package index refresh failed during build, retrying once")
			time.Sleep(p.refreshBackoff)
			attemptStart = logs.buf.Len()
			buildErr = p.engine.Build(ctx, opts)
		}
	}

	if buildErr != nil {
		kind, pkg := classifyBuildFailure(logs.String()[attemptStart:])
		return &Result{Logs: logs.String(), FailedPackage: pkg}, &EnvironmentError{
			Kind:    classifyKind(ctx, buildErr, kind),
			Image:   container.ImageTag(desc.BaseImage),
			Package: pkg,
			Err:     buildErr,
		}
	}

	logger.Info("environment provisioned", "image", tag)
	return &Result{Success: true, ImageTag: tag, Logs: logs.String()}, nil
}

// classifyBuildFailure attributes a failed build to a provisioning step
// from its captured output. The install markers are checked first since a
// missing package is the most precise signal; refresh markers next; and a
// failure before any apt output means the base image itself could not be
// resolved.
func classifyBuildFailure(output string) (Kind, platform.PackageName) {
	if pkg := firstFailedPackage(output); pkg != "" {
		return KindPackageInstallFailed, pkg
	}
	if strings.Contains(output, "E: Unmet dependencies") ||
		strings.Contains(output, "E: Unable to correct problems") {
		return KindPackageInstallFailed, ""
	}
	if strings.Contains(output, "Failed to fetch") ||
		strings.Contains(output, "E: The repository") {
		return KindIndexRefreshFailed, ""
	}
	return KindBaseImageUnavailable, ""
}
